package domain

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"
)

// TargetKind classifies a sky object.
type TargetKind string

const (
	KindPlanet TargetKind = "planet"
	KindMoon   TargetKind = "moon"
	KindDSO    TargetKind = "dso"
	KindStar   TargetKind = "star"
)

// VisibleTarget is one object as evaluated by the sky service for a given
// place and instant. It is derived data and never persisted.
type VisibleTarget struct {
	Name           string     `json:"name"`
	Kind           TargetKind `json:"kind"`
	AltitudeDeg    float64    `json:"altitude_deg"`
	AzimuthDeg     float64    `json:"azimuth_deg"`
	SunAltitudeDeg float64    `json:"sun_altitude_deg"`
	ElongationDeg  *float64   `json:"elongation_deg,omitempty"`
	Visible        bool       `json:"visible"`
	Reason         string     `json:"reason,omitempty"`
	Score          float64    `json:"score"`
}

// VisibleNames returns the names of the targets flagged visible, in order.
func VisibleNames(targets []VisibleTarget) []string {
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		if t.Visible {
			names = append(names, t.Name)
		}
	}
	return names
}

// FindTarget returns the target with the given name.
func FindTarget(targets []VisibleTarget, name string) (VisibleTarget, bool) {
	for _, t := range targets {
		if t.Name == name {
			return t, true
		}
	}
	return VisibleTarget{}, false
}

// RankTargets orders targets visible first, then by descending score. The
// sort is stable so equal scores keep the source order.
func RankTargets(targets []VisibleTarget) {
	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].Visible != targets[j].Visible {
			return targets[i].Visible
		}
		return targets[i].Score > targets[j].Score
	})
}

// PresetTargets is the bounded catalog offered without free text.
var PresetTargets = []string{
	"Saturn",
	"Jupiter",
	"Mars",
	"Venus",
	"Moon",
	"Orion Nebula (M42)",
	"Andromeda Galaxy (M31)",
	"Pleiades (M45)",
}

// CustomCategory is the label of the free-text escape hatch.
const CustomCategory = "Custom"

// IsPreset reports whether name is in the preset catalog.
func IsPreset(name string) bool {
	return slices.Contains(PresetTargets, name)
}

type selectionKind uint8

const (
	selectionPreset selectionKind = iota + 1
	selectionCustom
)

// TargetSelection is either a preset target name or a custom free-text name.
// The zero value is "nothing selected".
type TargetSelection struct {
	kind selectionKind
	name string
}

// Preset selects a named target that must be visible when submitted.
func Preset(name string) TargetSelection {
	return TargetSelection{kind: selectionPreset, name: name}
}

// Custom selects a free-text target exempt from the visibility check.
func Custom(text string) TargetSelection {
	return TargetSelection{kind: selectionCustom, name: text}
}

// SelectionFor seeds a selection from a persisted target name: catalog names
// stay presets, anything else becomes custom text.
func SelectionFor(targetName string) TargetSelection {
	if IsPreset(targetName) {
		return Preset(targetName)
	}
	return Custom(targetName)
}

// IsCustom reports whether this is the custom category.
func (t TargetSelection) IsCustom() bool { return t.kind == selectionCustom }

// IsZero reports whether nothing is selected.
func (t TargetSelection) IsZero() bool { return t.kind == 0 }

// Name is the preset name or the trimmed custom text.
func (t TargetSelection) Name() string {
	if t.kind == selectionCustom {
		return strings.TrimSpace(t.name)
	}
	return t.name
}

// Label is the name shown in a target picker.
func (t TargetSelection) Label() string {
	if t.kind == selectionCustom {
		return CustomCategory
	}
	return t.name
}

func (t TargetSelection) String() string {
	switch t.kind {
	case selectionPreset:
		return "preset(" + t.name + ")"
	case selectionCustom:
		return "custom(" + t.name + ")"
	}
	return "none"
}

// SkyProvider computes target visibility for a site and instant.
type SkyProvider interface {
	Targets(ctx context.Context, latitude, longitude float64, at time.Time) ([]VisibleTarget, error)
}
