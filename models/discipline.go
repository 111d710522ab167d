package models

import "errors"

// ErrUnsupportedDiscipline is returned when a discipline tag is not part of
// the supported catalog.
var ErrUnsupportedDiscipline = errors.New("unsupported martial art")

// Discipline is a supported martial-arts style tag.
type Discipline string

const (
	DisciplineSilatLincah Discipline = "silat_lincah"
	DisciplineVovinam     Discipline = "vovinam"
	DisciplineBJJ         Discipline = "bjj"
	DisciplineKyokushin   Discipline = "kyokushin"
)

// Valid reports whether the discipline is one of the supported styles.
func (d Discipline) Valid() bool {
	switch d {
	case DisciplineSilatLincah, DisciplineVovinam, DisciplineBJJ, DisciplineKyokushin:
		return true
	default:
		return false
	}
}

// DisciplineInfo describes a supported discipline for the static catalog.
type DisciplineInfo struct {
	ID          Discipline `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Techniques  []string   `json:"techniques"`
}

// Catalog returns the static catalog of supported disciplines.
func Catalog() []DisciplineInfo {
	return []DisciplineInfo{
		{
			ID:          DisciplineSilatLincah,
			Name:        "Silat Lincah",
			Description: "Malaysian Martial Art with fluid movements",
			Techniques:  []string{"Langkah Tiga", "Jurus", "Bunga Sembah"},
		},
		{
			ID:          DisciplineVovinam,
			Name:        "Vovinam Viet Vo Dao",
			Description: "Vietnamese martial art combining hard and soft techniques",
			Techniques:  []string{"Basic forms", "Self-defense techniques"},
		},
		{
			ID:          DisciplineBJJ,
			Name:        "Brazilian Jiu-Jitsu",
			Description: "Ground-based grappling martial art",
			Techniques:  []string{"Guard passes", "Submissions", "Escapes"},
		},
		{
			ID:          DisciplineKyokushin,
			Name:        "Kyokushin Nakamura",
			Description: "Full-contact karate style with powerful strikes",
			Techniques:  []string{"Kicks", "Punches", "Kata forms"},
		},
	}
}
