package goal_test

import (
	"testing"
	"time"

	"Nestegg/internal/domain/goal"
)

func TestChallengeEvaluateCompletion(t *testing.T) {
	t.Parallel()

	now := time.Now()
	challenge := &goal.Challenge{
		TargetAmount: 50,
		Status:       goal.ChallengeActive,
		StartDate:    now.Add(-24 * time.Hour),
		EndDate:      now.Add(24 * time.Hour),
	}

	if challenge.EvaluateCompletion(45, now) {
		t.Fatalf("challenge must not complete below target")
	}
	if !challenge.EvaluateCompletion(50, now) {
		t.Fatalf("challenge must complete at target")
	}
	if !challenge.EvaluateCompletion(55, now) {
		t.Fatalf("challenge must complete above target")
	}
}

func TestChallengeEvaluateCompletionAfterDeadline(t *testing.T) {
	t.Parallel()

	now := time.Now()
	challenge := &goal.Challenge{
		TargetAmount: 50,
		Status:       goal.ChallengeActive,
		StartDate:    now.Add(-48 * time.Hour),
		EndDate:      now.Add(-time.Hour),
	}

	if challenge.EvaluateCompletion(100, now) {
		t.Fatalf("challenge past its deadline must not complete")
	}
	if !challenge.IsExpired(now) {
		t.Fatalf("challenge past its deadline must report expired")
	}
}

func TestChallengeEvaluateCompletionNonActive(t *testing.T) {
	t.Parallel()

	now := time.Now()
	for _, status := range []goal.ChallengeStatus{goal.ChallengeCompleted, goal.ChallengeFailed, goal.ChallengeCancelled} {
		challenge := &goal.Challenge{
			TargetAmount: 50,
			Status:       status,
			EndDate:      now.Add(24 * time.Hour),
		}
		if challenge.EvaluateCompletion(100, now) {
			t.Fatalf("%s challenge must not complete again", status)
		}
		if challenge.IsExpired(now.Add(48 * time.Hour)) {
			t.Fatalf("%s challenge must not report expired", status)
		}
	}

	var nilChallenge *goal.Challenge
	if nilChallenge.EvaluateCompletion(100, now) {
		t.Fatalf("nil challenge must not complete")
	}
}
