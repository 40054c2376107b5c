//go:build unix

package term

import xterm "golang.org/x/term"

// terminalWidth возвращает ширину терминала или 0, если fd не является терминалом.
func terminalWidth(fd int) int {
	if fd < 0 || !xterm.IsTerminal(fd) {
		return 0
	}
	width, _, err := xterm.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

func isTerminal(fd int) bool {
	return fd >= 0 && xterm.IsTerminal(fd)
}
