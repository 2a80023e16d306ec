package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/calvinalkan/epochtable/dict"
)

// REPL is the interactive command loop: a liner-backed prompt that reads
// commands and drives a dict.Table.
type REPL struct {
	tbl     dict.Table
	variant string
	liner   *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".tabledemo_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("tabledemo - epochtable CLI (variant=%s)\n", r.variant)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("tabledemo> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "put":
			r.cmdPut(args)

		case "get":
			r.cmdGet(args)

		case "replace":
			r.cmdReplace(args)

		case "add":
			r.cmdAdd(args)

		case "del", "delete", "remove":
			r.cmdRemove(args)

		case "view":
			r.cmdView(args)

		case "len", "count":
			fmt.Printf("Live entries: %d\n", r.tbl.Len())

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"put", "get", "replace", "add", "del", "delete", "remove",
		"view", "len", "count", "help", "exit", "quit", "q",
	}

	lower := strings.ToLower(line)

	var out []string

	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			out = append(out, cmd)
		}
	}

	return out
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  put <key> <value>      Store value unconditionally")
	fmt.Println("  get <key>              Retrieve a value")
	fmt.Println("  replace <key> <value>  Store only if key already live")
	fmt.Println("  add <key> <value>      Store only if key not already live")
	fmt.Println("  del <key>              Remove a key")
	fmt.Println("  view [sorted]          List every live entry")
	fmt.Println("  len                    Count live entries")
	fmt.Println("  help                   Show this help")
	fmt.Println("  exit / quit / q        Exit")
}

func (r *REPL) cmdPut(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: put <key> <value>")

		return
	}

	old, found := r.tbl.Put(keyAt(atoiOr(args[0])), args[1])
	fmt.Printf("OK: put %s (displaced %v, found=%v)\n", args[0], old, found)
}

func (r *REPL) cmdGet(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: get <key>")

		return
	}

	item, found := r.tbl.Get(keyAt(atoiOr(args[0])))
	if !found {
		fmt.Println("(not found)")

		return
	}

	fmt.Printf("%v\n", item)
}

func (r *REPL) cmdReplace(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: replace <key> <value>")

		return
	}

	old, found := r.tbl.Replace(keyAt(atoiOr(args[0])), args[1])
	fmt.Printf("found=%v, displaced=%v\n", found, old)
}

func (r *REPL) cmdAdd(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: add <key> <value>")

		return
	}

	stored := r.tbl.Add(keyAt(atoiOr(args[0])), args[1])
	fmt.Printf("stored=%v\n", stored)
}

func (r *REPL) cmdRemove(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: del <key>")

		return
	}

	old, found := r.tbl.Remove(keyAt(atoiOr(args[0])))
	fmt.Printf("found=%v, removed=%v\n", found, old)
}

func (r *REPL) cmdView(args []string) {
	sorted := len(args) >= 1 && strings.EqualFold(args[0], "sorted")

	entries := r.tbl.View(sorted)
	if len(entries) == 0 {
		fmt.Println("(empty)")

		return
	}

	for _, e := range entries {
		fmt.Printf("  epoch=%d  %v\n", e.SortEpoch, e.Item)
	}
}

func atoiOr(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		// Demo keys are small integers by convention; fall back to a
		// stable hash of the raw string so non-numeric input still maps
		// to a consistent key rather than panicking.
		h := 0
		for _, b := range []byte(s) {
			h = h*31 + int(b)
		}

		return h
	}

	return n
}
