package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/LdDl/perimeter-go/mot"
)

// maxFrameLine bounds a single frame line
const maxFrameLine = 16 * 1024 * 1024

// errBadFrame marks a line that could not be parsed. Reading may continue after it
var errBadFrame = errors.New("bad frame")

// frameReader reads centroid frames, one frame per line.
// Points are "x,y" separated by "|". Empty line is a frame without motion.
// Lines starting with "#" are comments.
type frameReader struct {
	scanner *bufio.Scanner
	line    int
}

func newFrameReader(r io.Reader) *frameReader {
	return newFrameReaderSize(r, maxFrameLine)
}

func newFrameReaderSize(r io.Reader, maxLine int) *frameReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(bufio.MaxScanTokenSize, maxLine)), maxLine)
	return &frameReader{scanner: scanner}
}

// Next returns next frame. io.EOF is returned when input is exhausted.
// Errors wrapping errBadFrame concern a single line, any other error is final.
func (fr *frameReader) Next() ([]mot.Point, error) {
	for fr.scanner.Scan() {
		fr.line++
		text := strings.TrimSpace(fr.scanner.Text())
		if strings.HasPrefix(text, "#") {
			continue
		}
		points, err := parseFrame(text)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", errBadFrame, fr.line, err)
		}
		return points, nil
	}
	if err := fr.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frames after line %d: %w", fr.line, err)
	}
	return nil, io.EOF
}

func parseFrame(text string) ([]mot.Point, error) {
	if text == "" {
		return []mot.Point{}, nil
	}
	parts := strings.Split(text, "|")
	points := make([]mot.Point, 0, len(parts))
	for _, part := range parts {
		coords := strings.Split(strings.TrimSpace(part), ",")
		if len(coords) != 2 {
			return nil, fmt.Errorf("bad point %q: expected x,y", part)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad x in %q: %w", part, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad y in %q: %w", part, err)
		}
		points = append(points, mot.NewPoint(x, y))
	}
	return points, nil
}
