package repository_test

import (
	"testing"

	"github.com/peerquest-lab/backend/internal/repository"
	"github.com/peerquest-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_userRepository_CreditReward_atMostOnce(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	userRepo := repository.NewUserRepository()

	require.NoError(t, userRepo.CreditReward(ctx, testutil.User2.ID, "quest", 100, 10))

	// Replays of the same credit never apply twice.
	for i := 0; i < 3; i++ {
		err := userRepo.CreditReward(ctx, testutil.User2.ID, "quest", 100, 10)
		require.ErrorIs(t, err, repository.ErrDuplicated)
	}

	user, err := userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.EqualValues(t, 100, user.Experience)
	require.EqualValues(t, 10, user.Reputation)

	// A different reward id credits independently.
	require.NoError(t, userRepo.CreditReward(ctx, testutil.User2.ID, "quest2", 50, 5))

	user, err = userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.EqualValues(t, 150, user.Experience)
	require.EqualValues(t, 15, user.Reputation)
}

func Test_userRepository_SpendCreationPoints(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	userRepo := repository.NewUserRepository()

	require.NoError(t, userRepo.SpendCreationPoints(ctx, testutil.User1.ID, 10))

	// The balance is empty now; the guarded decrement must refuse.
	err := userRepo.SpendCreationPoints(ctx, testutil.User1.ID, 1)
	require.ErrorIs(t, err, repository.ErrPreconditionFailed)

	require.NoError(t, userRepo.RefundCreationPoints(ctx, testutil.User1.ID, 2))
	require.NoError(t, userRepo.SpendCreationPoints(ctx, testutil.User1.ID, 2))
}
