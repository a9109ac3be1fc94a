// Package errors provides the structured error type shared by the battle
// engine's repositories, orchestrators and transport.
//
// Every error carries a Code that callers branch on:
//   - InvalidArgument: malformed input (self-challenge, bot opponent,
//     missing character, unknown ability key). Shown to the user as is.
//   - FailedPrecondition: the request is well formed but illegal in the
//     current state (wrong battle status, not your turn, already learned,
//     expired challenge). Built with IllegalState so the reason is available
//     under the "reason" meta key.
//   - NotFound: unknown or purged battle, character or ability.
//   - PermissionDenied, Aborted, Internal for the remaining cases.
//
// Creating errors:
//
//	err := errors.NotFoundf("battle %s not found", battleID)
//	err := errors.IllegalState("not_your_turn", "it is not your turn")
//
// Wrapping keeps the code of the wrapped error:
//
//	if err := repo.Update(ctx, input); err != nil {
//	    return nil, errors.Wrap(err, "failed to accept challenge")
//	}
//
// Validation:
//
//	vb := errors.NewValidationBuilder()
//	errors.ValidateRequired("guild_id", input.GuildID, vb)
//	errors.ValidateRange("strength", scores.Strength, 8, 15, vb)
//	if err := vb.Build(); err != nil {
//	    return nil, err
//	}
//
// ToGRPCError and UnaryServerInterceptor map codes onto gRPC status codes.
package errors
