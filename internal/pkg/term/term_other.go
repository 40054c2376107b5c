//go:build !unix

package term

func terminalWidth(int) int {
	return 0
}

func isTerminal(int) bool {
	return false
}
