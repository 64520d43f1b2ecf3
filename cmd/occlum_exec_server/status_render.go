package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"occlum-exec/internal/ipc"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 10
	checkLabelWidth  = 20
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	return renderLabeledLine(statusLabelWidth, label, kind, message, colorize)
}

// renderCheckLine aligns the longer preflight check names.
func renderCheckLine(label string, kind statusKind, message string, colorize bool) string {
	return renderLabeledLine(checkLabelWidth, label, kind, message, colorize)
}

func renderLabeledLine(width int, label string, kind statusKind, message string, colorize bool) string {
	base := fmt.Sprintf("%-*s [%s] %s", width, label+":", statusKindLabel(kind), message)
	base = strings.TrimRight(base, " ")
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderNotRunning(socket string, colorize bool) string {
	return renderStatusLine("Daemon", statusWarn, "Not running (socket "+socket+")", colorize)
}

func renderStatus(st *ipc.StatusResponse, colorize bool) string {
	kind, message := statusOK, "Running"
	if !st.Running {
		kind, message = statusInfo, "Shutting down"
	}
	rows := [][2]string{
		{"State", st.State},
		{"PID", strconv.Itoa(st.PID)},
		{"Socket", st.Socket},
		{"Instance dir", st.InstanceDir},
		{"Run ID", st.RunID},
	}
	if !st.StartedAt.IsZero() {
		rows = append(rows,
			[2]string{"Started", st.StartedAt.Local().Format(time.RFC3339)},
			[2]string{"Uptime", time.Since(st.StartedAt).Truncate(time.Second).String()},
		)
	}
	return renderStatusLine("Daemon", kind, message, colorize) + "\n" + renderFieldTable(rows, colorize)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
