package models

import "testing"

func TestDisciplineValid(t *testing.T) {
	for _, d := range []Discipline{DisciplineSilatLincah, DisciplineVovinam, DisciplineBJJ, DisciplineKyokushin} {
		if !d.Valid() {
			t.Errorf("%q should be valid", d)
		}
	}
	for _, d := range []Discipline{"", "karate", "judo", "BJJ"} {
		if d.Valid() {
			t.Errorf("%q should not be valid", d)
		}
	}
}

func TestCatalog(t *testing.T) {
	catalog := Catalog()
	if len(catalog) != 4 {
		t.Fatalf("Expected 4 disciplines, got %d", len(catalog))
	}

	names := map[Discipline]string{
		DisciplineSilatLincah: "Silat Lincah",
		DisciplineVovinam:     "Vovinam Viet Vo Dao",
		DisciplineBJJ:         "Brazilian Jiu-Jitsu",
		DisciplineKyokushin:   "Kyokushin Nakamura",
	}
	for _, info := range catalog {
		want, ok := names[info.ID]
		if !ok {
			t.Errorf("Unexpected catalog entry %q", info.ID)
			continue
		}
		if info.Name != want {
			t.Errorf("Entry %q named %q, want %q", info.ID, info.Name, want)
		}
		if info.Description == "" || len(info.Techniques) == 0 {
			t.Errorf("Entry %q is incomplete", info.ID)
		}
		delete(names, info.ID)
	}
	if len(names) != 0 {
		t.Errorf("Catalog missing entries: %v", names)
	}
}
