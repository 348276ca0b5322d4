package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"

	"squabble_server/internal/domain"
)

// размер руки игрока
const RackSize = 7

type letterWeight struct {
	letter rune
	value  int
}

// очки за букву: частые дешевые, редкие дорогие
var letterTable = []letterWeight{
	{'a', 1}, {'e', 1}, {'i', 1}, {'o', 1}, {'u', 1},
	{'l', 1}, {'n', 1}, {'s', 1}, {'t', 1}, {'r', 1},
	{'d', 2}, {'g', 2},
	{'b', 3}, {'c', 3}, {'m', 3}, {'p', 3},
	{'f', 4}, {'h', 4}, {'v', 4}, {'w', 4}, {'y', 4},
	{'k', 5},
	{'j', 8}, {'x', 8},
	{'q', 10}, {'z', 10},
}

var letterValues = func() map[rune]int {
	m := make(map[rune]int, len(letterTable))
	for _, lw := range letterTable {
		m[lw.letter] = lw.value
	}
	return m
}()

// LetterValue возвращает очки буквы без учета регистра, неизвестные символы = 0
func LetterValue(r rune) int {
	return letterValues[unicode.ToLower(r)]
}

// WordScore - сумма очков букв, без множителей
func WordScore(word string) int {
	score := 0
	for _, r := range word {
		score += LetterValue(r)
	}
	return score
}

// LetterBag раздает буквы с весом 1/очки
type LetterBag struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewLetterBag() *LetterBag {
	return NewSeededLetterBag(time.Now().UnixNano())
}

// детерминированный мешок для тестов
func NewSeededLetterBag(seed int64) *LetterBag {
	return &LetterBag{rnd: rand.New(rand.NewSource(seed))}
}

// Draw тянет одну букву
func (b *LetterBag) Draw() domain.LetterTile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drawUnlocked()
}

func (b *LetterBag) drawUnlocked() domain.LetterTile {
	total := 0.0
	for _, lw := range letterTable {
		total += 1 / float64(lw.value)
	}

	pick := b.rnd.Float64() * total
	for _, lw := range letterTable {
		pick -= 1 / float64(lw.value)
		if pick <= 0 {
			return tileFor(lw)
		}
	}
	// сюда попадаем только из-за погрешности float
	return tileFor(letterTable[1])
}

// Rack собирает полную руку из RackSize букв
func (b *LetterBag) Rack() []domain.LetterTile {
	b.mu.Lock()
	defer b.mu.Unlock()

	rack := make([]domain.LetterTile, RackSize)
	for i := range rack {
		rack[i] = b.drawUnlocked()
	}
	return rack
}

func tileFor(lw letterWeight) domain.LetterTile {
	return domain.LetterTile{Letter: strings.ToUpper(string(lw.letter)), Value: lw.value}
}
