package uci

import (
	"strconv"
	"strings"
)

// Option is one engine-advertised option line from the handshake.
type Option struct {
	Name    string
	Type    string
	Default string
}

// SearchInfo is telemetry scraped from info lines during a search. Fields
// may arrive in any subset and any order; absent fields stay zero.
type SearchInfo struct {
	Depth      int
	Nodes      int64
	TimeMillis int64
}

// parseBestMove extracts the move and optional ponder tokens from a
// bestmove terminator line.
func parseBestMove(line string) (EngineMove, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return EngineMove{}, false
	}
	mv := EngineMove{Move: fields[1]}
	for i := 2; i+1 < len(fields); i++ {
		if fields[i] == "ponder" {
			mv.Ponder = fields[i+1]
			break
		}
	}
	// Some engines emit "bestmove (none)" for dead positions.
	if mv.Move == "(none)" {
		mv.Move = ""
	}
	return mv, true
}

// parseInfo scans an info line for known telemetry fields. Unknown tokens
// are skipped; a line with no recognized field reports false.
func parseInfo(line string) (SearchInfo, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return SearchInfo{}, false
	}
	var si SearchInfo
	found := false
	for i := 1; i+1 < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if v, err := strconv.Atoi(fields[i+1]); err == nil {
				si.Depth = v
				found = true
			}
			i++
		case "nodes":
			if v, err := strconv.ParseInt(fields[i+1], 10, 64); err == nil {
				si.Nodes = v
				found = true
			}
			i++
		case "time":
			if v, err := strconv.ParseInt(fields[i+1], 10, 64); err == nil {
				si.TimeMillis = v
				found = true
			}
			i++
		}
	}
	return si, found
}

// parseOption reads "option name <N> type <T> default <D>" lines. Names may
// span multiple words; everything between "name" and the next keyword
// belongs to the name.
func parseOption(line string) (Option, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "option" {
		return Option{}, false
	}
	var opt Option
	var nameParts, defParts []string
	section := ""
	for _, f := range fields[1:] {
		switch f {
		case "name", "type", "default":
			section = f
			continue
		case "min", "max", "var":
			section = f
			continue
		}
		switch section {
		case "name":
			nameParts = append(nameParts, f)
		case "type":
			opt.Type = f
		case "default":
			defParts = append(defParts, f)
		}
	}
	opt.Name = strings.Join(nameParts, " ")
	opt.Default = strings.Join(defParts, " ")
	if opt.Name == "" {
		return Option{}, false
	}
	return opt, true
}
