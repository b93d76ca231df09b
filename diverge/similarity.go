package diverge

// NameSimilarity is the length of the longest common prefix of a and b over
// the length of the longer name. Two empty names score 0.
func NameSimilarity(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return float64(n) / float64(longest)
}

// CoverageSimilarity is the Jaccard index of the distinct method targets
// touched by a and b. An empty union (neither side touched anything) scores 0.
func CoverageSimilarity(a, b []Event) float64 {
	setA := targetSet(a)
	setB := targetSet(b)
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func targetSet(events []Event) map[string]struct{} {
	set := make(map[string]struct{}, len(events))
	for _, ev := range events {
		set[ev.Target()] = struct{}{}
	}
	return set
}

// ThreadSimilarity combines name and coverage similarity into a score in
// [0, 1]. Threads with disjoint method sets always score 0.
func ThreadSimilarity(a, b *ThreadTrace) float64 {
	cov := CoverageSimilarity(a.Events, b.Events)
	if cov == 0 {
		return 0
	}
	return NameSimilarity(a.Name, b.Name) * cov
}
