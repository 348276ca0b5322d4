package game

import (
	"sort"

	"github.com/samber/lo"

	"squabble_server/internal/domain"
)

// Rank сортирует по очкам, при равенстве на вершине - ничья
func Rank(gameID string, players []*domain.Player) *domain.GameResult {
	ranking := lo.Map(players, func(p *domain.Player, _ int) *domain.Player { return p.Clone() })
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Score != ranking[j].Score {
			return ranking[i].Score > ranking[j].Score
		}
		return ranking[i].ID < ranking[j].ID
	})

	res := &domain.GameResult{GameID: gameID, Ranking: ranking, Winners: []*domain.Player{}}
	if len(ranking) == 0 {
		return res
	}

	top := ranking[0].Score
	res.Winners = lo.Filter(ranking, func(p *domain.Player, _ int) bool { return p.Score == top })
	res.IsDraw = len(res.Winners) > 1
	return res
}
