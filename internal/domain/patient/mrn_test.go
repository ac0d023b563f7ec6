package patient

import "testing"

func TestValidMRN(t *testing.T) {
	valid := []string{"CL00000001", "AB12345678", "ZZ99999999"}
	for _, v := range valid {
		if !ValidMRN(v) {
			t.Errorf("expected %s to be valid", v)
		}
	}

	invalid := []string{"", "cl00000001", "CL0000001", "CL000000011", "C100000001", "CLABCDEFGH"}
	for _, v := range invalid {
		if ValidMRN(v) {
			t.Errorf("expected %s to be invalid", v)
		}
	}
}

func TestGenerateMRN(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		mrn, err := GenerateMRN()
		if err != nil {
			t.Fatalf("GenerateMRN() error: %v", err)
		}
		if !ValidMRN(mrn) {
			t.Fatalf("generated invalid MRN: %s", mrn)
		}
		seen[mrn] = true
	}
	// 50 draws from 10^8 should not all collide
	if len(seen) < 2 {
		t.Error("generator produced no variety")
	}
}
