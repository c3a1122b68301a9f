package main

import (
	"bufio"
	"cmp"
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/erisonliang/dotdotnet/ppc"
)

// lineProducer emits the lines of one file.
type lineProducer struct {
	path string
	file *os.File
}

func newLineProducer(path string) *lineProducer {
	return &lineProducer{path: path}
}

func (p *lineProducer) Name() string { return p.path }

func (p *lineProducer) Init(context.Context) error {
	f, err := os.Open(p.path)
	if err != nil {
		return err
	}
	p.file = f
	return nil
}

func (p *lineProducer) Produce(ctx context.Context, sink ppc.Sink[string]) error {
	scanner := bufio.NewScanner(p.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := sink.Add(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (p *lineProducer) Dispose(context.Context) error {
	if p.file == nil {
		return nil
	}
	return p.file.Close()
}

// tally is a word histogram shared by all consumers.
type tally struct {
	mu     sync.Mutex
	counts map[string]int
	lines  int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) addLine(line string) {
	words := strings.FieldsFunc(strings.ToLower(line), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines++
	for _, w := range words {
		t.counts[w]++
	}
}

type wordCount struct {
	Word  string
	Count int
}

// top returns the n most frequent words, ties broken alphabetically.
func (t *tally) top(n int) []wordCount {
	t.mu.Lock()
	out := make([]wordCount, 0, len(t.counts))
	for w, c := range t.counts {
		out = append(out, wordCount{w, c})
	}
	t.mu.Unlock()

	slices.SortFunc(out, func(a, b wordCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Word, b.Word)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (t *tally) totals() (lines, distinct int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lines, len(t.counts)
}

func lineConsumer(name string, t *tally) ppc.Consumer[string] {
	return ppc.NewHandlerConsumer(name, func(_ context.Context, line string) error {
		t.addLine(line)
		return nil
	})
}

func batchConsumer(name string, t *tally) ppc.Consumer[[]string] {
	return ppc.NewHandlerConsumer(name, func(_ context.Context, lines []string) error {
		for _, line := range lines {
			t.addLine(line)
		}
		return nil
	})
}
