package core

import "testing"

func TestRoleForPhase(t *testing.T) {
	if RoleForPhase(PhaseKnowledge) != RoleResearcher {
		t.Fatalf("Knowledge must map to researcher")
	}
	for _, phase := range []PhaseID{PhasePlan, PhaseImplement, PhaseScale, PhaseProduction} {
		if RoleForPhase(phase) != RoleCoder {
			t.Fatalf("phase %s must map to coder", phase)
		}
	}
}

func TestRoleForIntent(t *testing.T) {
	cases := map[Intent]ModelRole{
		IntentCoding:   RoleCoder,
		IntentResearch: RoleResearcher,
		IntentWriting:  RoleCoder,
		IntentVision:   RoleVision,
	}
	for intent, want := range cases {
		if got := RoleForIntent(intent); got != want {
			t.Fatalf("RoleForIntent(%s) = %s, want %s", intent, got, want)
		}
	}
}

func TestClassifyRAMTier_Bands(t *testing.T) {
	cases := []struct {
		gb   int
		want RAMTier
	}{
		{0, TierMinimal},
		{8, TierMinimal},
		{15, TierMinimal},
		{16, TierCompact},
		{23, TierCompact},
		{24, TierBalanced},
		{31, TierBalanced},
		{32, TierPerformance},
		{63, TierPerformance},
		{64, TierAdvanced},
		{256, TierAdvanced},
	}
	for _, tc := range cases {
		if got := ClassifyRAMTier(tc.gb); got != tc.want {
			t.Fatalf("ClassifyRAMTier(%d) = %s, want %s", tc.gb, got, tc.want)
		}
	}
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("balanced")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tier != TierBalanced {
		t.Fatalf("expected balanced tier, got %s", tier)
	}
	if _, err := ParseTier("gigantic"); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range AllRoles() {
		if !ValidRole(r) {
			t.Fatalf("expected role %s to be valid", r)
		}
	}
	if ValidRole("janitor") {
		t.Fatalf("unknown role must be invalid")
	}
}
