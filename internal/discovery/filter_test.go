package discovery

import "testing"

func TestFilter_FilterByName(t *testing.T) {
	filter := NewFilter()
	files := []string{
		"/app/tests/UserTest.php",
		"/app/tests/PaymentTest.php",
		"/app/tests/PaymentServiceTest.php",
		"/app/tests/OrderTest.php",
	}

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"empty pattern keeps everything", "", files},
		{"exact wildcard suffix", "*UserTest.php", []string{files[0]}},
		{"substring wildcard", "*Payment*", []string{files[1], files[2]}},
		{"bare substring", "Payment", []string{files[1], files[2]}},
		{"ordered pieces", "*Payment*Service*", []string{files[2]}},
		{"question mark", "????Test.php", []string{files[0]}},
		{"no match", "*Invoice*", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.FilterByName(files, tt.pattern)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}
