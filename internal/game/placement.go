package game

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"squabble_server/internal/domain"
)

var (
	ErrWordNotValid          = errors.New("word not valid")
	ErrAdjacentWordsNotValid = errors.New("adjacent words not valid")
	ErrInvalidPlacement      = errors.New("invalid placement")
)

// Placement - ход игрока: слово, путь по клеткам и выставленные буквы
type Placement struct {
	Word   string
	Path   []domain.Position
	Placed []domain.PlacedLetter
}

// PlacementResult - итог принятого хода
type PlacementResult struct {
	Words []string
	Score int
	Newly []domain.Position
}

// Place проверяет ход и фиксирует его на поле.
// При любой ошибке поле не меняется.
// Повтор уже принятого хода дает пустой результат без очков.
func (b *Board) Place(dict Dictionary, pl Placement) (*PlacementResult, error) {
	word := strings.ToUpper(strings.TrimSpace(pl.Word))
	if word == "" || !dict.IsValid(word) {
		return nil, ErrWordNotValid
	}

	o, err := b.checkPath(word, pl)
	if err != nil {
		return nil, err
	}

	letters := []rune(word)
	placed := lo.SliceToMap(pl.Placed, func(l domain.PlacedLetter) (domain.Position, struct{}) {
		return l.Position(), struct{}{}
	})

	// новые буквы: выставлены ходом и клетка еще пустая
	var newly []domain.Position
	for _, p := range pl.Path {
		if _, ok := placed[p]; ok && b.IsEmpty(p) {
			newly = append(newly, p)
		}
	}
	if len(newly) == 0 {
		return &PlacementResult{Words: []string{}}, nil
	}

	hypo := *b
	for i, p := range pl.Path {
		hypo.set(p, string(letters[i]))
	}

	single := len(pl.Path) == 1
	if single {
		if w, _ := hypo.run(pl.Path[0], horizontal); utf8.RuneCountInString(w) > 1 {
			o = horizontal
		} else {
			o = vertical
		}
	}

	var candidates []string
	if w, _ := hypo.run(pl.Path[0], o); utf8.RuneCountInString(w) > 1 {
		candidates = append(candidates, w)
	}
	for _, p := range newly {
		if w, _ := hypo.run(p, o.other()); utf8.RuneCountInString(w) > 1 {
			candidates = append(candidates, w)
		}
	}
	words := lo.Uniq(candidates)
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: move forms no word", ErrInvalidPlacement)
	}

	for _, w := range words {
		if !dict.IsValid(w) {
			return nil, fmt.Errorf("%w: %s", ErrAdjacentWordsNotValid, w)
		}
	}

	*b = hypo
	return &PlacementResult{
		Words: words,
		Score: lo.SumBy(words, WordScore),
		Newly: newly,
	}, nil
}

// checkPath - структурные проверки пути, возвращает ориентацию
func (b *Board) checkPath(word string, pl Placement) (orientation, error) {
	letters := []rune(word)
	if len(pl.Path) == 0 || len(pl.Path) != len(letters) {
		return 0, fmt.Errorf("%w: path length %d for word of %d letters", ErrInvalidPlacement, len(pl.Path), len(letters))
	}
	for _, p := range pl.Path {
		if !b.InBounds(p) {
			return 0, fmt.Errorf("%w: cell (%d,%d) out of bounds", ErrInvalidPlacement, p.X, p.Y)
		}
	}

	o := horizontal
	if len(pl.Path) > 1 {
		d := domain.Position{X: pl.Path[1].X - pl.Path[0].X, Y: pl.Path[1].Y - pl.Path[0].Y}
		switch d {
		case horizontal.step():
			o = horizontal
		case vertical.step():
			o = vertical
		default:
			return 0, fmt.Errorf("%w: path is not a straight line", ErrInvalidPlacement)
		}
		for i := 1; i < len(pl.Path); i++ {
			want := domain.Position{X: pl.Path[0].X + i*d.X, Y: pl.Path[0].Y + i*d.Y}
			if pl.Path[i] != want {
				return 0, fmt.Errorf("%w: path is not contiguous", ErrInvalidPlacement)
			}
		}
	}

	declared := lo.SliceToMap(pl.Placed, func(l domain.PlacedLetter) (domain.Position, struct{}) {
		return l.Position(), struct{}{}
	})
	onPath := make(map[domain.Position]int, len(pl.Path))
	for i, p := range pl.Path {
		onPath[p] = i
		cell := b.At(p)
		if cell != EmptyCell && cell != string(letters[i]) {
			return 0, fmt.Errorf("%w: cell (%d,%d) already holds %s", ErrInvalidPlacement, p.X, p.Y, cell)
		}
		// пустая клетка пути должна быть среди выставленных букв
		if _, ok := declared[p]; cell == EmptyCell && !ok {
			return 0, fmt.Errorf("%w: cell (%d,%d) is empty and not placed", ErrInvalidPlacement, p.X, p.Y)
		}
	}
	for _, l := range pl.Placed {
		i, ok := onPath[l.Position()]
		if !ok {
			return 0, fmt.Errorf("%w: placed letter at (%d,%d) is off the path", ErrInvalidPlacement, l.X, l.Y)
		}
		if !strings.EqualFold(l.Letter, string(letters[i])) {
			return 0, fmt.Errorf("%w: placed letter %s does not match word", ErrInvalidPlacement, l.Letter)
		}
	}
	return o, nil
}
