package catalog

import "math"

// maxSummaryNames は要約に含める国・ジャンルの最大数です。
const maxSummaryNames = 3

// Named は name だけを持つ要素です（制作国・ジャンル）。
type Named struct {
	Name string `json:"name"`
}

// Movie はカタログAPIの映画詳細です。任意項目は欠けていても構いません。
type Movie struct {
	ID                  int64   `json:"id"`
	Title               string  `json:"title"`
	Overview            string  `json:"overview"`
	PosterPath          *string `json:"poster_path"`
	ReleaseDate         string  `json:"release_date"`
	Runtime             *int    `json:"runtime"`
	VoteAverage         float64 `json:"vote_average"`
	VoteCount           int     `json:"vote_count"`
	ProductionCountries []Named `json:"production_countries"`
	Genres              []Named `json:"genres"`
}

// MovieSummary はブックマーク一覧で返す映画の要約です。
type MovieSummary struct {
	ID                  int64    `json:"id"`
	Title               string   `json:"title"`
	Overview            string   `json:"overview"`
	PosterPath          *string  `json:"poster_path"`
	ReleaseDate         string   `json:"release_date"`
	Runtime             *int     `json:"runtime"`
	VoteAverage         float64  `json:"vote_average"`
	VoteCount           int      `json:"vote_count"`
	ProductionCountries []string `json:"production_countries"`
	Genres              []string `json:"genres"`
}

// Summarize は Movie を MovieSummary に変換します。
// 評価は小数第1位に丸め、国とジャンルは先頭3件までにします。欠けている一覧は空配列です。
func Summarize(m *Movie) MovieSummary {
	return MovieSummary{
		ID:                  m.ID,
		Title:               m.Title,
		Overview:            m.Overview,
		PosterPath:          m.PosterPath,
		ReleaseDate:         m.ReleaseDate,
		Runtime:             m.Runtime,
		VoteAverage:         math.Round(m.VoteAverage*10) / 10,
		VoteCount:           m.VoteCount,
		ProductionCountries: names(m.ProductionCountries),
		Genres:              names(m.Genres),
	}
}

func names(items []Named) []string {
	n := min(len(items), maxSummaryNames)
	out := make([]string, 0, n)
	for _, item := range items[:n] {
		out = append(out, item.Name)
	}
	return out
}
