package summarize

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numbered returns "w0 w1 ... w<n-1>".
func numbered(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestChunk_SingleWindowReturnsInput(t *testing.T) {
	input := "  keep   the original   spacing of a short input  "
	assert.Equal(t, []string{input}, Chunk(input, 1200, 150))

	exact := numbered(1000)
	assert.Equal(t, []string{exact}, Chunk(exact, 1000, 150))
}

func TestChunk_LongInput(t *testing.T) {
	chunks := Chunk(numbered(5000), 1000, 150)
	require.Len(t, chunks, 6)

	for i, c := range chunks {
		words := strings.Fields(c)
		assert.LessOrEqual(t, len(words), 1000)
		assert.Equal(t, fmt.Sprintf("w%d", i*850), words[0])
	}
	assert.Len(t, strings.Fields(chunks[5]), 750)
}

func TestChunk_Coverage(t *testing.T) {
	geometries := []struct{ window, overlap int }{
		{1200, 150}, {1600, 180}, {1500, 180}, {1000, 120}, {40, 10},
	}
	sizes := []int{9, 11, 57, 1001, 1857, 1850, 3333, 5000}

	for _, g := range geometries {
		for _, n := range sizes {
			t.Run(fmt.Sprintf("%d/%d/%d", g.window, g.overlap, n), func(t *testing.T) {
				words := strings.Fields(numbered(n))
				chunks := Chunk(strings.Join(words, " "), g.window, g.overlap)
				require.NotEmpty(t, chunks)

				if n <= g.window {
					require.Len(t, chunks, 1)
					return
				}

				// every chunk is a contiguous window starting step words after the previous
				step := g.window - g.overlap
				covered := 0
				for i, c := range chunks {
					start := i * step
					end := min(start+g.window, n)
					require.Equal(t, strings.Join(words[start:end], " "), c)
					require.LessOrEqual(t, start, covered, "gap before chunk %d", i)
					covered = max(covered, end)
				}
				assert.Equal(t, n, covered)
			})
		}
	}
}

func TestChunk_DropsTinyTail(t *testing.T) {
	// the tail window [14, 20) has 6 words and is dropped
	chunks := Chunk(numbered(20), 10, 3)
	require.Len(t, chunks, 2)
	assert.Equal(t, "w7", strings.Fields(chunks[1])[0])
}

func TestChunk_AllDroppedFallsBackToInput(t *testing.T) {
	input := numbered(12)
	assert.Equal(t, []string{input}, Chunk(input, 5, 0))
}
