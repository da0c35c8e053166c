package scraper

import (
	"math"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-games/models"
)

// stats accumulates per-run counters. It is owned by the Scraper and
// finalized into a read-only models.Statistics at run end; there is no
// process-wide statistics state.
type stats struct {
	mu sync.Mutex

	processed       int
	withCover       int
	withScreenshots int
	withDownloads   int
	withYoutube     int
	withInfo        int
	errors          int
}

func (st *stats) record(game *models.Game) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.processed++
	if game.CoverImage != "" {
		st.withCover++
	}
	if len(game.Screenshots) > 0 {
		st.withScreenshots++
	}
	if len(game.DownloadLinks) > 0 {
		st.withDownloads++
	}
	if game.YoutubeGameplay != "" {
		st.withYoutube++
	}
	if len(game.AdditionalInfo) > 0 {
		st.withInfo++
	}
}

func (st *stats) addError() {
	st.mu.Lock()
	st.errors++
	st.mu.Unlock()
}

func (st *stats) finalize(elapsed time.Duration) models.Statistics {
	st.mu.Lock()
	defer st.mu.Unlock()

	seconds := elapsed.Seconds()
	perMinute := 0.0
	if seconds > 0 {
		perMinute = float64(st.processed) / (seconds / 60)
	}

	return models.Statistics{
		GamesProcessed:          st.processed,
		GamesWithCover:          st.withCover,
		GamesWithScreenshots:    st.withScreenshots,
		GamesWithDownloads:      st.withDownloads,
		GamesWithYoutube:        st.withYoutube,
		GamesWithAdditionalInfo: st.withInfo,
		Errors:                  st.errors,
		ElapsedTimeSeconds:      round2(seconds),
		GamesPerMinute:          round2(perMinute),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
