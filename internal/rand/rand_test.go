package rand

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

const charsetCheck = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func TestStringLengthAndAlphabet(t *testing.T) {
	for _, n := range []int{0, 1, 16, 64} {
		s := String(n)
		assert.Len(t, s, n)
		for _, r := range s {
			assert.True(t, strings.ContainsRune(charsetCheck, r))
		}
	}
}

func TestStringIsConcurrencySafe(t *testing.T) {
	var wg sync.WaitGroup
	out := make([]string, 32)
	for i := range out {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = String(16)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, s := range out {
		assert.Len(t, s, 16)
		assert.False(t, seen[s], "collision in 32 draws is effectively impossible")
		seen[s] = true
	}
}

func BenchmarkString(b *testing.B) {
	for i := 0; i < b.N; i++ {
		String(16)
	}
}
