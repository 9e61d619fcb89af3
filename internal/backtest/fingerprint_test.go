package backtest

import "testing"

func TestFingerprintStable(t *testing.T) {
	bars := barSeries(10.0, 10.5, 11.0)
	if Fingerprint(bars) != Fingerprint(bars) {
		t.Error("fingerprint of identical series differs")
	}
	if got := len(Fingerprint(bars)); got != fingerprintLen {
		t.Errorf("fingerprint length = %d, want %d", got, fingerprintLen)
	}
}

func TestFingerprintChanges(t *testing.T) {
	base := barSeries(10.0, 10.5, 11.0)

	appended := barSeries(10.0, 10.5, 11.0, 11.2)
	if Fingerprint(base) == Fingerprint(appended) {
		t.Error("appending a bar must change the fingerprint")
	}

	corrected := barSeries(10.0, 10.5, 11.5)
	if Fingerprint(base) == Fingerprint(corrected) {
		t.Error("correcting the last close must change the fingerprint")
	}
}

func TestFingerprintEmptySeries(t *testing.T) {
	if got := len(Fingerprint(nil)); got != fingerprintLen {
		t.Errorf("empty-series fingerprint length = %d, want %d", got, fingerprintLen)
	}
	if Fingerprint(nil) == Fingerprint(barSeries(10.0)) {
		t.Error("empty and non-empty series share a fingerprint")
	}
}
