package modes

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ModeEntry is one non-pair mode file (analyzer, generator, or tagger)
// discovered on disk.
type ModeEntry struct {
	DirPath  string
	ModeName string
	Lang     string
}

// PairEntry is one pair mode file discovered on disk.
type PairEntry struct {
	ModeFilePath string
	Pair         PairKey
}

// Inventory is the one-shot result of a Discover call.
type Inventory struct {
	Pairs      []PairEntry
	Analyzers  []ModeEntry
	Generators []ModeEntry
	Taggers    []ModeEntry
}

var (
	pairModeRe = regexp.MustCompile(`^([a-zA-Z]{2,3})-([a-zA-Z]{2,3})\.mode$`)
	// Non-pair modes follow the convention "<lang>-<kind>.mode" where kind
	// identifies the mode class (morph analyzer, generator, or tagger).
	nonPairModeRe = regexp.MustCompile(`^([a-zA-Z]{2,3})-(morph|gener|tagger)\.mode$`)
)

// Discover walks pairsRoot (and, if non-empty, nonPairsRoot) and classifies
// every *.mode file it finds. Discovery is one-shot: call it once at
// startup. Duplicate pairs/modes (same PairKey or same dir+lang+kind seen
// twice) keep the first occurrence encountered during the walk.
func Discover(pairsRoot, nonPairsRoot string, log *zap.Logger) (*Inventory, error) {
	if log == nil {
		log = zap.NewNop()
	}

	inv := &Inventory{}
	seenPairs := make(map[PairKey]bool)
	seenModes := make(map[string]bool) // dirPath|kind|lang

	walker := func(includePairs bool) fs.WalkDirFunc {
		return func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Warn("discovery: walk error", zap.String("path", path), zap.Error(err))
				return nil
			}
			if d.IsDir() {
				return nil
			}
			name := d.Name()
			if !strings.HasSuffix(name, ".mode") {
				return nil
			}

			if m := pairModeRe.FindStringSubmatch(name); m != nil {
				if !includePairs {
					// non-pairs root admits only non-translation modes.
					return nil
				}
				pair := PairKey{Src: m[1], Tgt: m[2]}.Canonicalize()
				if seenPairs[pair] {
					log.Debug("discovery: duplicate pair ignored", zap.Stringer("pair", pair))
					return nil
				}
				seenPairs[pair] = true
				inv.Pairs = append(inv.Pairs, PairEntry{ModeFilePath: path, Pair: pair})
				return nil
			}

			if m := nonPairModeRe.FindStringSubmatch(name); m != nil {
				lang := canonLang(m[1])
				kind := m[2]
				dirPath := filepath.Dir(path)
				dedupeKey := dirPath + "|" + kind + "|" + lang
				if seenModes[dedupeKey] {
					return nil
				}
				seenModes[dedupeKey] = true

				entry := ModeEntry{DirPath: dirPath, ModeName: strings.TrimSuffix(name, ".mode"), Lang: lang}
				switch kind {
				case "morph":
					inv.Analyzers = append(inv.Analyzers, entry)
				case "gener":
					inv.Generators = append(inv.Generators, entry)
				case "tagger":
					inv.Taggers = append(inv.Taggers, entry)
				}
				return nil
			}

			return nil
		}
	}

	if pairsRoot != "" {
		if err := filepath.WalkDir(pairsRoot, walker(true)); err != nil {
			return nil, err
		}
	}
	if nonPairsRoot != "" {
		if err := filepath.WalkDir(nonPairsRoot, walker(false)); err != nil {
			return nil, err
		}
	}

	log.Info("discovery complete",
		zap.Int("pairs", len(inv.Pairs)),
		zap.Int("analyzers", len(inv.Analyzers)),
		zap.Int("generators", len(inv.Generators)),
		zap.Int("taggers", len(inv.Taggers)),
	)

	return inv, nil
}
