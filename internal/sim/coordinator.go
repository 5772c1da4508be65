package sim

// pickCoordinatorFromVisitors returns the lowest-id member with age ≥ 15;
// if no member is an adult, the lowest id overall (§4.5 begin_step).
func pickCoordinatorFromVisitors(members []*Visitor) int {
	best := -1
	bestAdult := -1
	for _, v := range members {
		if best == -1 || v.ID < best {
			best = v.ID
		}
		if v.Age >= 15 && (bestAdult == -1 || v.ID < bestAdult) {
			bestAdult = v.ID
		}
	}
	if bestAdult != -1 {
		return bestAdult
	}
	return best
}
