package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squabble_server/internal/domain"
)

func testDict() *WordList {
	return NewWordList([]string{"cat", "cats", "to", "so", "at", "tab", "word"})
}

// поле с CAT в строке 5, x=3..5
func catBoard() Board {
	var b Board
	b.Seed("cat")
	return b
}

func row(y int, xs ...int) []domain.Position {
	out := make([]domain.Position, len(xs))
	for i, x := range xs {
		out[i] = domain.Position{X: x, Y: y}
	}
	return out
}

func col(x int, ys ...int) []domain.Position {
	out := make([]domain.Position, len(ys))
	for i, y := range ys {
		out[i] = domain.Position{X: x, Y: y}
	}
	return out
}

func TestSeedCentersWord(t *testing.T) {
	b := catBoard()
	assert.Equal(t, "C", b[5][3])
	assert.Equal(t, "A", b[5][4])
	assert.Equal(t, "T", b[5][5])
	assert.Equal(t, EmptyCell, b[5][2])
	assert.Equal(t, EmptyCell, b[4][4])
}

func TestPlaceExtendsWord(t *testing.T) {
	b := catBoard()

	res, err := b.Place(testDict(), Placement{
		Word:   "cats",
		Path:   row(5, 3, 4, 5, 6),
		Placed: []domain.PlacedLetter{{Letter: "s", X: 6, Y: 5}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"CATS"}, res.Words)
	assert.Equal(t, 6, res.Score)
	assert.Equal(t, []domain.Position{{X: 6, Y: 5}}, res.Newly)
	assert.Equal(t, "S", b[5][6])
}

func TestPlaceIsIdempotent(t *testing.T) {
	b := catBoard()
	pl := Placement{
		Word:   "cats",
		Path:   row(5, 3, 4, 5, 6),
		Placed: []domain.PlacedLetter{{Letter: "S", X: 6, Y: 5}},
	}

	_, err := b.Place(testDict(), pl)
	require.NoError(t, err)
	before := b

	res, err := b.Place(testDict(), pl)
	require.NoError(t, err)
	assert.Empty(t, res.Words)
	assert.Zero(t, res.Score)
	assert.Equal(t, before, b)
}

func TestPlaceVerticalReportsOnlyNewWord(t *testing.T) {
	b := catBoard()

	res, err := b.Place(testDict(), Placement{
		Word:   "to",
		Path:   col(5, 5, 6),
		Placed: []domain.PlacedLetter{{Letter: "o", X: 5, Y: 6}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"TO"}, res.Words)
	assert.Equal(t, 2, res.Score)
}

func TestPlaceRejectsUnknownWord(t *testing.T) {
	b := catBoard()
	before := b

	_, err := b.Place(testDict(), Placement{
		Word:   "cs",
		Path:   col(3, 5, 6),
		Placed: []domain.PlacedLetter{{Letter: "s", X: 3, Y: 6}},
	})
	assert.ErrorIs(t, err, ErrWordNotValid)
	assert.Equal(t, before, b)
}

func TestPlaceRejectsInvalidAdjacentRun(t *testing.T) {
	b := catBoard()
	before := b

	// SO под C дает вертикальное CSO
	_, err := b.Place(testDict(), Placement{
		Word:   "so",
		Path:   col(3, 6, 7),
		Placed: []domain.PlacedLetter{{Letter: "s", X: 3, Y: 6}, {Letter: "o", X: 3, Y: 7}},
	})
	assert.ErrorIs(t, err, ErrAdjacentWordsNotValid)
	assert.Contains(t, err.Error(), "CSO")
	assert.Equal(t, before, b)
}

func TestPlaceRejectsUndeclaredEmptyCells(t *testing.T) {
	b := catBoard()
	b.set(domain.Position{X: 7, Y: 4}, "X")
	before := b

	// O в (7,5) не объявлена, иначе прошло бы непроверенное XO
	_, err := b.Place(NewWordList([]string{"catso", "so"}), Placement{
		Word:   "catso",
		Path:   row(5, 3, 4, 5, 6, 7),
		Placed: []domain.PlacedLetter{{Letter: "s", X: 6, Y: 5}},
	})
	assert.ErrorIs(t, err, ErrInvalidPlacement)
	assert.Equal(t, before, b)
	assert.Equal(t, EmptyCell, b.At(domain.Position{X: 7, Y: 5}))
}

func TestPlaceStructuralChecks(t *testing.T) {
	tests := []struct {
		name string
		pl   Placement
	}{
		{
			name: "length mismatch",
			pl:   Placement{Word: "cats", Path: row(5, 3, 4, 5)},
		},
		{
			name: "diagonal",
			pl: Placement{Word: "to", Path: []domain.Position{{X: 5, Y: 5}, {X: 6, Y: 6}},
				Placed: []domain.PlacedLetter{{Letter: "o", X: 6, Y: 6}}},
		},
		{
			name: "gap",
			pl: Placement{Word: "to", Path: []domain.Position{{X: 5, Y: 5}, {X: 5, Y: 7}},
				Placed: []domain.PlacedLetter{{Letter: "o", X: 5, Y: 7}}},
		},
		{
			name: "out of bounds",
			pl: Placement{Word: "at", Path: row(0, 9, 10),
				Placed: []domain.PlacedLetter{{Letter: "a", X: 9, Y: 0}, {Letter: "t", X: 10, Y: 0}}},
		},
		{
			name: "overwrites committed letter",
			pl: Placement{Word: "tab", Path: row(5, 3, 4, 5),
				Placed: []domain.PlacedLetter{{Letter: "t", X: 3, Y: 5}}},
		},
		{
			name: "placed letter off path",
			pl: Placement{Word: "cats", Path: row(5, 3, 4, 5, 6),
				Placed: []domain.PlacedLetter{{Letter: "s", X: 7, Y: 5}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := catBoard()
			before := b
			_, err := b.Place(testDict(), tt.pl)
			assert.ErrorIs(t, err, ErrInvalidPlacement)
			assert.Equal(t, before, b)
		})
	}
}

func TestWordScore(t *testing.T) {
	assert.Equal(t, 5, WordScore("CAT"))
	assert.Equal(t, 5, WordScore("cat"))
	assert.Equal(t, 20, WordScore("qz"))
	assert.Equal(t, 0, WordScore(""))
}

func TestRackDrawsSevenKnownLetters(t *testing.T) {
	bag := NewSeededLetterBag(42)
	rack := bag.Rack()
	require.Len(t, rack, RackSize)
	for _, tile := range rack {
		assert.Equal(t, LetterValue([]rune(tile.Letter)[0]), tile.Value)
		assert.Positive(t, tile.Value)
	}
}

func TestRackFavoursCheapLetters(t *testing.T) {
	bag := NewSeededLetterBag(7)
	cheap, dear := 0, 0
	for i := 0; i < 5000; i++ {
		switch bag.Draw().Value {
		case 1:
			cheap++
		case 10:
			dear++
		}
	}
	assert.Greater(t, cheap, dear*10)
}
