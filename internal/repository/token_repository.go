package repository

import (
	"context"
	"database/sql"
	"time"

	"backoffice-api/internal/model"
)

// TokenRepo persists the single-use email verification and password reset
// tokens.  Issuing purges any outstanding token for the same user first;
// consuming performs the side effect (stamping the verification time,
// storing the new password hash) and deletes the row inside one
// transaction so a token can never be replayed.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// IssueVerification stores a fresh email verification token, replacing any
// older one for the user.
func (r *TokenRepo) IssueVerification(ctx context.Context, userID uint64, token string, exp time.Time) error {
	return r.issue(ctx, "email_verification_tokens", userID, token, exp)
}

// IssueReset stores a fresh password reset token, replacing any older one
// for the user.
func (r *TokenRepo) IssueReset(ctx context.Context, userID uint64, token string, exp time.Time) error {
	return r.issue(ctx, "password_reset_tokens", userID, token, exp)
}

func (r *TokenRepo) issue(ctx context.Context, table string, userID uint64, token string, exp time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE user_id=?", userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO "+table+" (user_id, token, expires_at) VALUES (?,?,?)",
		userID, token, exp); err != nil {
		return err
	}
	return tx.Commit()
}

// ConsumeVerification validates a verification token, marks the owning
// user's email as verified and deletes the token, all in one transaction.
// It returns the user id so callers can invalidate cached identity.
func (r *TokenRepo) ConsumeVerification(ctx context.Context, token string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	tok, err := lookupToken(ctx, tx, "email_verification_tokens", token)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET email_verified_at=NOW(), updated_at=NOW() WHERE id=?", tok.UserID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM email_verification_tokens WHERE id=?", tok.ID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return tok.UserID, nil
}

// ConsumeReset validates a reset token, stores the new password hash and
// deletes the token, all in one transaction.  It returns the user id so
// callers can invalidate cached identity.
func (r *TokenRepo) ConsumeReset(ctx context.Context, token, newHash string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	tok, err := lookupToken(ctx, tx, "password_reset_tokens", token)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password=?, updated_at=NOW() WHERE id=?", newHash, tok.UserID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE id=?", tok.ID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return tok.UserID, nil
}

// lookupToken resolves a token row and enforces expiry.  Unknown and
// expired tokens both come back as ErrTokenInvalid; callers cannot tell
// the cases apart, which keeps the outward error message uniform.
func lookupToken(ctx context.Context, tx *sql.Tx, table, token string) (model.ActionToken, error) {
	var tok model.ActionToken
	err := tx.QueryRowContext(ctx,
		"SELECT id, user_id, token, expires_at FROM "+table+" WHERE token=? LIMIT 1",
		token).Scan(&tok.ID, &tok.UserID, &tok.Token, &tok.ExpiresAt)
	if err == sql.ErrNoRows {
		return model.ActionToken{}, ErrTokenInvalid
	}
	if err != nil {
		return model.ActionToken{}, err
	}
	if time.Now().UTC().After(tok.ExpiresAt) {
		return model.ActionToken{}, ErrTokenInvalid
	}
	return tok, nil
}
