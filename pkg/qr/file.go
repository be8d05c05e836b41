package qr

import (
	"bufio"
	"fmt"
	"os"
)

// DecodeFile opens path and runs it through the same checks as an upload.
func DecodeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat image: %w", err)
	}

	br := bufio.NewReaderSize(f, 512)
	head, _ := br.Peek(512)
	return DecodeImage(br, DetectMIME(path, head), info.Size())
}
