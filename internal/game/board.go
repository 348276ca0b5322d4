package game

import (
	"errors"
	"fmt"
	"strings"

	"squabble_server/internal/domain"
)

const (
	BoardSize = 10
	EmptyCell = ""

	// длина стартового слова
	SeedMinLen = 4
	SeedMaxLen = 5
	seedRow    = 5
)

var ErrBadBoard = errors.New("board must be 10x10")

// Board - поле [y][x], пустая клетка = EmptyCell, буквы в верхнем регистре
type Board [BoardSize][BoardSize]string

func (b *Board) InBounds(p domain.Position) bool {
	return p.X >= 0 && p.X < BoardSize && p.Y >= 0 && p.Y < BoardSize
}

func (b *Board) At(p domain.Position) string {
	return b[p.Y][p.X]
}

func (b *Board) set(p domain.Position, letter string) {
	b[p.Y][p.X] = strings.ToUpper(letter)
}

func (b *Board) IsEmpty(p domain.Position) bool {
	return b.At(p) == EmptyCell
}

// Clear очищает поле целиком
func (b *Board) Clear() {
	*b = Board{}
}

// Seed кладет слово по центру строки 5
func (b *Board) Seed(word string) {
	b.Clear()
	start := (BoardSize - len(word)) / 2
	for i, r := range word {
		b.set(domain.Position{X: start + i, Y: seedRow}, string(r))
	}
}

// Rows - представление для клиента и кэша
func (b *Board) Rows() [][]string {
	rows := make([][]string, BoardSize)
	for y := range b {
		rows[y] = append([]string(nil), b[y][:]...)
	}
	return rows
}

// BoardFromRows проверяет размер и собирает поле
func BoardFromRows(rows [][]string) (Board, error) {
	var b Board
	if len(rows) != BoardSize {
		return b, fmt.Errorf("%w: got %d rows", ErrBadBoard, len(rows))
	}
	for y, row := range rows {
		if len(row) != BoardSize {
			return b, fmt.Errorf("%w: row %d has %d cells", ErrBadBoard, y, len(row))
		}
		for x, cell := range row {
			b.set(domain.Position{X: x, Y: y}, cell)
		}
	}
	return b, nil
}

type orientation int

const (
	horizontal orientation = iota
	vertical
)

func (o orientation) step() domain.Position {
	if o == horizontal {
		return domain.Position{X: 1}
	}
	return domain.Position{Y: 1}
}

func (o orientation) other() orientation {
	if o == horizontal {
		return vertical
	}
	return horizontal
}

// run - максимальная непрерывная последовательность букв через p по оси o
func (b *Board) run(p domain.Position, o orientation) (string, []domain.Position) {
	if !b.InBounds(p) || b.IsEmpty(p) {
		return "", nil
	}
	d := o.step()

	start := p
	for {
		prev := domain.Position{X: start.X - d.X, Y: start.Y - d.Y}
		if !b.InBounds(prev) || b.IsEmpty(prev) {
			break
		}
		start = prev
	}

	var sb strings.Builder
	var cells []domain.Position
	for cur := start; b.InBounds(cur) && !b.IsEmpty(cur); cur = (domain.Position{X: cur.X + d.X, Y: cur.Y + d.Y}) {
		sb.WriteString(b.At(cur))
		cells = append(cells, cur)
	}
	return sb.String(), cells
}
