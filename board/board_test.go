package board

import "testing"

func TestBoard_shape(t *testing.T) {
	all := Spaces()
	if len(all) != Size {
		t.Fatalf("wrong size: %d", len(all))
	}
	if all[0].Type != Go {
		t.Errorf("space 0 is %s", all[0].Type)
	}
	if all[JailPosition].Type != Jail {
		t.Errorf("jail is %s", all[JailPosition].Type)
	}
	if all[30].Type != GoToJail {
		t.Errorf("space 30 is %s", all[30].Type)
	}
	for _, s := range all {
		if s.Type == Property && len(s.Rents) != 5 {
			t.Errorf("%s has %d rent tiers", s.Name, len(s.Rents))
		}
		if s.Type.Ownable() && s.Price == 0 {
			t.Errorf("%s has no price", s.Name)
		}
	}
}

func TestBoard_groups(t *testing.T) {
	tests := []struct {
		g Group
		n int
	}{
		{Brown, 2}, {LightBlue, 3}, {Pink, 3}, {Orange, 3},
		{Red, 3}, {Yellow, 3}, {Green, 3}, {DarkBlue, 2},
		{RailGroup, 4}, {UtilGroup, 2},
	}
	for _, tt := range tests {
		if got := len(InGroup(tt.g)); got != tt.n {
			t.Errorf("group %s has %d spaces, want %d", tt.g, got, tt.n)
		}
	}
}

func TestBoard_at(t *testing.T) {
	if At(41).ID != 1 {
		t.Errorf("no wrap")
	}
	if At(1).Name != "Old Kent Road" || At(1).BaseRent != 2 {
		t.Errorf("bad space 1: %v", At(1))
	}
	if At(39).RentFor(5) != 2000 {
		t.Errorf("bad hotel rent: %d", At(39).RentFor(5))
	}
	if At(39).RentFor(0) != 0 {
		t.Errorf("tier 0 should be empty")
	}
}

func TestBoard_colors(t *testing.T) {
	c := Colors()
	if len(c) != 6 || c[0] != "#EF4444" {
		t.Errorf("bad palette: %v", c)
	}
	c[0] = "x"
	if Colors()[0] == "x" {
		t.Errorf("palette leaked")
	}
}
