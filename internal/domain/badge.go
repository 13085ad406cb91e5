package domain

// ─── Badge Catalog ──────────────────────────────────────────────────────────
// Badges unlock permanently once all-time points cross a fixed threshold.
// The catalog is static at runtime and ordered by ascending threshold.

// Rarity is the badge rarity tier.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// BadgeDefinition is one entry in the static badge catalog.
type BadgeDefinition struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Rarity      Rarity `json:"rarity"`
	Threshold   int64  `json:"threshold"`
	Description string `json:"description"`
}

// BadgeCatalog is the full catalog, ordered by ascending threshold.
type BadgeCatalog []BadgeDefinition

// DefaultBadgeCatalog returns the stock E-SERBISYO badge set.
func DefaultBadgeCatalog() BadgeCatalog {
	return BadgeCatalog{
		{ID: "starter", Title: "Starter", Rarity: RarityCommon, Threshold: 100,
			Description: "Welcome to E-SERBISYO! Earn your first 100 points."},
		{ID: "helper", Title: "Helper", Rarity: RarityCommon, Threshold: 250,
			Description: "A familiar face at community events."},
		{ID: "contributor", Title: "Contributor", Rarity: RarityUncommon, Threshold: 500,
			Description: "Actively contributing to the community."},
		{ID: "organizer", Title: "Organizer", Rarity: RarityUncommon, Threshold: 1000,
			Description: "Bringing neighbors together."},
		{ID: "champion", Title: "Champion", Rarity: RarityRare, Threshold: 2500,
			Description: "A pillar of community service."},
		{ID: "hero", Title: "Hero", Rarity: RarityEpic, Threshold: 5000,
			Description: "Going above and beyond for the barangay."},
		{ID: "luminary", Title: "Luminary", Rarity: RarityEpic, Threshold: 7500,
			Description: "An inspiration to every volunteer."},
		{ID: "legend", Title: "Legend", Rarity: RarityLegendary, Threshold: 10000,
			Description: "Ultimate recognition for community service."},
	}
}

// ─── Badge Evaluation ───────────────────────────────────────────────────────

// BadgeState is one badge's unlock status and progress for a point total.
type BadgeState struct {
	Badge    BadgeDefinition `json:"badge"`
	Unlocked bool            `json:"unlocked"`
	Progress float64         `json:"progress"` // clamp(points/threshold, 0, 1)
}

// BadgeEvaluation is the result of evaluating the catalog for a user.
type BadgeEvaluation struct {
	States        []BadgeState      `json:"states"`
	NewlyUnlocked []BadgeDefinition `json:"newly_unlocked"`
}

// Evaluate computes every badge's unlock state for the given all-time point
// total. Previously owned badges stay unlocked regardless of points, so
// unlocks are never revoked. Pure and safe to run speculatively: the caller
// decides whether to persist NewlyUnlocked.
func (c BadgeCatalog) Evaluate(points int64, owned []string) BadgeEvaluation {
	ownedSet := make(map[string]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}

	eval := BadgeEvaluation{States: make([]BadgeState, 0, len(c))}
	for _, def := range c {
		unlocked := points >= def.Threshold || ownedSet[def.ID]

		progress := 1.0
		if def.Threshold > 0 && points < def.Threshold {
			progress = float64(points) / float64(def.Threshold)
		}
		if progress < 0 {
			progress = 0
		}

		eval.States = append(eval.States, BadgeState{
			Badge:    def,
			Unlocked: unlocked,
			Progress: progress,
		})
		if unlocked && !ownedSet[def.ID] {
			eval.NewlyUnlocked = append(eval.NewlyUnlocked, def)
		}
	}
	return eval
}

// ─── Level Curve ────────────────────────────────────────────────────────────

// LevelInfo is the derived level state for a point total.
type LevelInfo struct {
	Level        int     `json:"level"`
	Points       int64   `json:"points"`
	PointsToNext int64   `json:"points_to_next"`
	Progress     float64 `json:"progress"` // within the current level, [0, 1)
}

// LevelForPoints derives the level as a pure function of cumulative points:
// level = points/levelSize + 1. Monotonically non-decreasing in points and
// recomputed in full on every point change so cached levels never drift.
func LevelForPoints(points, levelSize int64) LevelInfo {
	if levelSize <= 0 {
		levelSize = 100
	}
	if points < 0 {
		points = 0
	}
	level := points/levelSize + 1
	into := points % levelSize
	return LevelInfo{
		Level:        int(level),
		Points:       points,
		PointsToNext: levelSize - into,
		Progress:     float64(into) / float64(levelSize),
	}
}
