// Package mocks provides mock expectation helpers for common testing patterns
package mocks

import (
	"context"

	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/rpg-battle/internal/entities"
	"github.com/KirkDiggler/rpg-battle/internal/errors"
	metricsmock "github.com/KirkDiggler/rpg-battle/internal/metrics/mock"
	characterrepo "github.com/KirkDiggler/rpg-battle/internal/repositories/character"
	charactermock "github.com/KirkDiggler/rpg-battle/internal/repositories/character/mock"
)

// ExpectCharacterGet sets up a mock expectation for loading a character. A
// nil character returns NotFound.
func ExpectCharacterGet(
	ctx context.Context, mockRepo *charactermock.MockRepository,
	guildID, userID string, character *entities.Character,
) {
	call := mockRepo.EXPECT().
		Get(ctx, characterrepo.GetInput{GuildID: guildID, UserID: userID})

	if character == nil {
		call.Return(nil, errors.NotFoundf("character %s not found", entities.CharacterID(guildID, userID)))
		return
	}
	call.Return(&characterrepo.GetOutput{Character: character}, nil)
}

// ExpectSweep sets up the metrics a sweep pass records: the open battle
// gauge for status and the sweep outcome
func ExpectSweep(
	mockMetrics *metricsmock.MockRecorder,
	status entities.BattleStatus, open int,
	name string, processed, failed int,
) {
	mockMetrics.EXPECT().SetOpenBattles(status, open)
	mockMetrics.EXPECT().RecordSweep(name, processed, failed, gomock.Any())
}
