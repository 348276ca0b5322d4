package game

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/samber/lo"
)

// Dictionary - внешний словарь
type Dictionary interface {
	IsValid(word string) bool
	RandomWord(minLen, maxLen int) string
}

// WordList - словарь в памяти, слова длиннее поля отбрасываются
type WordList struct {
	words map[string]struct{}
	byLen map[int][]string
}

func NewWordList(words []string) *WordList {
	wl := &WordList{
		words: make(map[string]struct{}, len(words)),
		byLen: make(map[int][]string),
	}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || len(w) > BoardSize {
			continue
		}
		if _, ok := wl.words[w]; ok {
			continue
		}
		wl.words[w] = struct{}{}
		wl.byLen[len(w)] = append(wl.byLen[len(w)], w)
	}
	return wl
}

// LoadWordList читает по одному слову на строку
func LoadWordList(r io.Reader) (*WordList, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		words = append(words, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return NewWordList(words), nil
}

func LoadWordListFile(path string) (*WordList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()
	return LoadWordList(f)
}

func (wl *WordList) Len() int {
	return len(wl.words)
}

// IsValid без учета регистра
func (wl *WordList) IsValid(word string) bool {
	_, ok := wl.words[strings.ToLower(word)]
	return ok
}

// RandomWord возвращает "" если подходящих слов нет
func (wl *WordList) RandomWord(minLen, maxLen int) string {
	lengths := lo.Filter(lo.Keys(wl.byLen), func(l int, _ int) bool {
		return l >= minLen && l <= maxLen
	})
	candidates := lo.FlatMap(lengths, func(l int, _ int) []string {
		return wl.byLen[l]
	})
	if len(candidates) == 0 {
		return ""
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(candidates))))
	if err != nil {
		return candidates[0]
	}
	return candidates[n.Int64()]
}
