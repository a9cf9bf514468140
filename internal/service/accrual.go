package service

import "time"

const BasePoints = 100

// ReferralBonuses rewards the 1st, 3rd and 5th referral of a calendar day
// specifically. The keys are exact same-day counts, not thresholds: the 2nd,
// 4th, 6th and later referrals of the day earn the base award only.
var ReferralBonuses = map[int]int{
	1: 100,
	3: 200,
	5: 500,
}

// ReferralAward computes the points a referrer earns for one referral.
// referralsToday is the referrer's referral count for the current calendar
// day including the event being created, so the first referral of the day
// arrives with referralsToday == 1.
func ReferralAward(referralsToday int) int {
	return BasePoints + ReferralBonuses[referralsToday]
}

// StartOfDay returns local midnight of t's calendar day. Referral counts
// reset at this boundary.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
