package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"observer/internal/platform/models"
)

// KeyRepository owns the api_keys table. Every mutation that can disturb the
// priority ordering runs inside a single transaction and renumbers the
// owner's keys to 0..n-1 from a fresh read, so no reader ever observes
// duplicate or gapped priorities.
type KeyRepository struct {
	db *sql.DB
}

func NewKeyRepository(db *sql.DB) *KeyRepository {
	return &KeyRepository{db: db}
}

const keyColumns = `id, owner_id, secret_enc, label, priority, is_exhausted, remaining_credits, last_credit_check_at, last_used_at, created_at, updated_at`

func scanKey(row interface{ Scan(...interface{}) error }) (*models.CredentialKey, error) {
	var k models.CredentialKey
	var remaining, lastCheck, lastUsed sql.NullInt64

	err := row.Scan(&k.ID, &k.OwnerID, &k.SecretEnc, &k.Label, &k.Priority, &k.Exhausted,
		&remaining, &lastCheck, &lastUsed, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if remaining.Valid {
		k.RemainingCredit = &remaining.Int64
	}
	if lastCheck.Valid {
		k.LastCreditCheckAt = &lastCheck.Int64
	}
	if lastUsed.Valid {
		k.LastUsedAt = &lastUsed.Int64
	}
	return &k, nil
}

func (r *KeyRepository) ListByOwner(ownerID string) ([]*models.CredentialKey, error) {
	query := `SELECT ` + keyColumns + ` FROM api_keys WHERE owner_id = ? ORDER BY priority ASC, created_at ASC`
	rows, err := r.db.Query(query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*models.CredentialKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// GetByID returns nil when the id is unknown or belongs to another owner.
func (r *KeyRepository) GetByID(ownerID, id string) (*models.CredentialKey, error) {
	query := `SELECT ` + keyColumns + ` FROM api_keys WHERE id = ? AND owner_id = ?`
	k, err := scanKey(r.db.QueryRow(query, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return k, nil
}

// Create inserts the key at the tail of the owner's ordering. The max
// priority is read inside the same transaction as the insert so concurrent
// adds cannot collide.
func (r *KeyRepository) Create(key *models.CredentialKey) error {
	if key.ID == "" {
		key.ID = "key_" + uuid.New().String()
	}
	now := time.Now().UnixMilli()
	key.CreatedAt = now
	key.UpdatedAt = now

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var maxPriority sql.NullInt64
	err = tx.QueryRow(`SELECT MAX(priority) FROM api_keys WHERE owner_id = ?`, key.OwnerID).Scan(&maxPriority)
	if err != nil {
		return err
	}
	key.Priority = 0
	if maxPriority.Valid {
		key.Priority = int(maxPriority.Int64) + 1
	}

	_, err = tx.Exec(`
		INSERT INTO api_keys (`+keyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, key.ID, key.OwnerID, key.SecretEnc, key.Label, key.Priority, key.Exhausted,
		key.RemainingCredit, key.LastCreditCheckAt, key.LastUsedAt, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes the key and closes the priority gap left behind. Returns
// false when the id is unknown or owned by another account.
func (r *KeyRepository) Delete(ownerID, id string) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM api_keys WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if err := renumber(tx, ownerID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// DeleteLowest is the legacy single-key deletion path: it removes the
// lowest-priority key. Returns false when the owner has no keys.
func (r *KeyRepository) DeleteLowest(ownerID string) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRow(`SELECT id FROM api_keys WHERE owner_id = ? ORDER BY priority ASC, created_at ASC LIMIT 1`, ownerID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := tx.Exec(`DELETE FROM api_keys WHERE id = ?`, id); err != nil {
		return false, err
	}
	if err := renumber(tx, ownerID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// Reorder moves the key to newPriority (clamped to the valid range) and
// renumbers the whole set contiguously, preserving the relative order of the
// other keys. The ordering is re-read inside the transaction rather than
// trusted from the caller's snapshot.
func (r *KeyRepository) Reorder(ownerID, id string, newPriority int) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	ids, err := orderedIDs(tx, ownerID)
	if err != nil {
		return false, err
	}

	from := -1
	for i, existing := range ids {
		if existing == id {
			from = i
			break
		}
	}
	if from == -1 {
		return false, nil
	}

	if newPriority < 0 {
		newPriority = 0
	}
	if newPriority > len(ids)-1 {
		newPriority = len(ids) - 1
	}

	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:newPriority], append([]string{id}, ids[newPriority:]...)...)

	now := time.Now().UnixMilli()
	for i, keyID := range ids {
		if _, err := tx.Exec(`UPDATE api_keys SET priority = ?, updated_at = ? WHERE id = ?`, i, now, keyID); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}

// UpdateMeta patches label and/or exhaustion. Nil fields are left untouched.
func (r *KeyRepository) UpdateMeta(ownerID, id string, label *string, exhausted *bool) (bool, error) {
	now := time.Now().UnixMilli()

	query := `UPDATE api_keys SET updated_at = ?`
	args := []interface{}{now}
	if label != nil {
		query += `, label = ?`
		args = append(args, *label)
	}
	if exhausted != nil {
		query += `, is_exhausted = ?`
		args = append(args, *exhausted)
	}
	query += ` WHERE id = ? AND owner_id = ?`
	args = append(args, id, ownerID)

	res, err := r.db.Exec(query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *KeyRepository) UpdateSecret(id, secretEnc string) error {
	_, err := r.db.Exec(`UPDATE api_keys SET secret_enc = ?, updated_at = ? WHERE id = ?`,
		secretEnc, time.Now().UnixMilli(), id)
	return err
}

func (r *KeyRepository) SetExhausted(id string, exhausted bool) error {
	_, err := r.db.Exec(`UPDATE api_keys SET is_exhausted = ?, updated_at = ? WHERE id = ?`,
		exhausted, time.Now().UnixMilli(), id)
	return err
}

func (r *KeyRepository) SetCreditCache(id string, remaining int64, exhausted bool) error {
	now := time.Now().UnixMilli()
	_, err := r.db.Exec(`
		UPDATE api_keys SET remaining_credits = ?, is_exhausted = ?, last_credit_check_at = ?, updated_at = ?
		WHERE id = ?
	`, remaining, exhausted, now, now, id)
	return err
}

func (r *KeyRepository) TouchUsed(id string) error {
	_, err := r.db.Exec(`UPDATE api_keys SET last_used_at = ? WHERE id = ?`,
		time.Now().UnixMilli(), id)
	return err
}

// ListOwners returns the distinct owners holding at least one key. The
// credit refresh worker iterates this set.
func (r *KeyRepository) ListOwners() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT owner_id FROM api_keys ORDER BY owner_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

func orderedIDs(tx *sql.Tx, ownerID string) ([]string, error) {
	rows, err := tx.Query(`SELECT id FROM api_keys WHERE owner_id = ? ORDER BY priority ASC, created_at ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func renumber(tx *sql.Tx, ownerID string) error {
	ids, err := orderedIDs(tx, ownerID)
	if err != nil {
		return err
	}
	now := time.Now().UnixMilli()
	for i, id := range ids {
		if _, err := tx.Exec(`UPDATE api_keys SET priority = ?, updated_at = ? WHERE id = ?`, i, now, id); err != nil {
			return err
		}
	}
	return nil
}
