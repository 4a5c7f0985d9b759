package experiment

import (
	"math/rand"
	"time"
)

var (
	adjectives = []string{
		"absorbent", "bright", "boomy", "clear", "damped", "dead", "diffuse", "dry",
		"early", "echoing", "flutter", "hollow", "late", "live", "mellow", "modal",
		"muffled", "open", "resonant", "ringing", "rounded", "smooth", "soft", "sparse",
		"specular", "still", "tight", "warm", "wet", "quiet",
	}

	nouns = []string{
		"attic", "basement", "booth", "cathedral", "cave", "chamber", "chapel", "cellar",
		"corridor", "hall", "hallway", "library", "loft", "nave", "parlour", "stairwell",
		"studio", "theatre", "tunnel", "vault", "garage", "gallery", "kitchen", "atrium",
	}
)

// GenerateName creates a memorable "adjective-noun" name
func GenerateName(rng *rand.Rand) string {
	return adjectives[rng.Intn(len(adjectives))] + "-" + nouns[rng.Intn(len(nouns))]
}

// GenerateID combines a memorable name with a timestamp so that runs sort by time
func GenerateID(t time.Time) string {
	rng := rand.New(rand.NewSource(t.UnixNano()))
	return GenerateName(rng) + "-" + t.Format("20060102-150405")
}
