package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godlycrypto/referral-bot/internal/models"
)

// UpsertMember сохраняет анкету участника. Повторная отправка заявки тем же
// пользователем перезаписывает существующую запись, а не создаёт новую.
func (s *Storage) UpsertMember(ctx context.Context, m models.Member) error {
	const op = "storage.UpsertMember"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO members (user_id, username, language, full_name, phone, email,
			      godfather, payment_method, transaction_id, status, registration_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  ON CONFLICT (user_id) DO UPDATE SET
			      username = EXCLUDED.username,
			      language = EXCLUDED.language,
			      full_name = EXCLUDED.full_name,
			      phone = EXCLUDED.phone,
			      email = EXCLUDED.email,
			      godfather = EXCLUDED.godfather,
			      payment_method = EXCLUDED.payment_method,
			      transaction_id = EXCLUDED.transaction_id,
			      status = EXCLUDED.status,
			      registration_date = EXCLUDED.registration_date`
	_, err := s.DB.ExecContext(ctx, query,
		m.UserID, m.Username, m.Language, m.FullName, m.Phone, m.Email,
		m.Godfather, m.PaymentMethod, m.TransactionID, m.Status, m.RegistrationDate)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetMemberByID возвращает анкету участника по идентификатору Telegram.
func (s *Storage) GetMemberByID(ctx context.Context, userID int64) (*models.Member, error) {
	const op = "storage.GetMemberByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, username, language, full_name, phone, email, godfather,
			      payment_method, transaction_id, status, registration_date,
			      subscription_start_date, subscription_renewal_date
			  FROM members
			  WHERE user_id = $1`
	return s.scanMember(s.DB.QueryRowContext(ctx, query, userID), op)
}

// GetMemberByUsername возвращает анкету участника по его публичному username.
// Используется при разрешении спонсора, указанного не числом.
func (s *Storage) GetMemberByUsername(ctx context.Context, username string) (*models.Member, error) {
	const op = "storage.GetMemberByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, username, language, full_name, phone, email, godfather,
			      payment_method, transaction_id, status, registration_date,
			      subscription_start_date, subscription_renewal_date
			  FROM members
			  WHERE username = $1`
	return s.scanMember(s.DB.QueryRowContext(ctx, query, username), op)
}

// UpdateDecision фиксирует решение администратора: статус и, при одобрении,
// даты начала и продления подписки. Возвращает количество изменённых строк.
func (s *Storage) UpdateDecision(ctx context.Context, userID int64, status models.Status,
	startDate, renewalDate *time.Time) (int, error) {
	const op = "storage.UpdateDecision"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE members
			  SET status = $1,
			      subscription_start_date = COALESCE($2, subscription_start_date),
			      subscription_renewal_date = COALESCE($3, subscription_renewal_date)
			  WHERE user_id = $4`
	result, err := s.DB.ExecContext(ctx, query, status, startDate, renewalDate, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// CountReferrals подсчитывает приглашённых участников по фильтру:
// равенство по спонсору, опционально статус Approved и интервал даты регистрации.
func (s *Storage) CountReferrals(ctx context.Context, filter models.ReferralFilter) (int, error) {
	const op = "storage.CountReferrals"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	conditions := []string{"godfather = $1"}
	args := []any{filter.Godfather}
	if filter.OnlyApproved {
		args = append(args, models.StatusApproved)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RegisteredFrom != nil {
		args = append(args, *filter.RegisteredFrom)
		conditions = append(conditions, fmt.Sprintf("registration_date >= $%d", len(args)))
	}
	if filter.RegisteredTo != nil {
		args = append(args, *filter.RegisteredTo)
		conditions = append(conditions, fmt.Sprintf("registration_date <= $%d", len(args)))
	}

	query := `SELECT COUNT(*) FROM members WHERE ` + strings.Join(conditions, " AND ")
	var count int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListAllMembers возвращает все анкеты. Используется месячным отчётом.
func (s *Storage) ListAllMembers(ctx context.Context) ([]*models.Member, error) {
	const op = "storage.ListAllMembers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, username, language, full_name, phone, email, godfather,
			      payment_method, transaction_id, status, registration_date,
			      subscription_start_date, subscription_renewal_date
			  FROM members
			  ORDER BY user_id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Member
	for rows.Next() {
		m := &models.Member{}
		var godfather sql.NullInt64
		var startDate, renewalDate sql.NullTime
		if err = rows.Scan(&m.UserID, &m.Username, &m.Language, &m.FullName, &m.Phone,
			&m.Email, &godfather, &m.PaymentMethod, &m.TransactionID, &m.Status,
			&m.RegistrationDate, &startDate, &renewalDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		fillOptional(m, godfather, startDate, renewalDate)
		result = append(result, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Storage) scanMember(row *sql.Row, op string) (*models.Member, error) {
	m := &models.Member{}
	var godfather sql.NullInt64
	var startDate, renewalDate sql.NullTime
	if err := row.Scan(&m.UserID, &m.Username, &m.Language, &m.FullName, &m.Phone,
		&m.Email, &godfather, &m.PaymentMethod, &m.TransactionID, &m.Status,
		&m.RegistrationDate, &startDate, &renewalDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrMemberNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	fillOptional(m, godfather, startDate, renewalDate)
	return m, nil
}

func fillOptional(m *models.Member, godfather sql.NullInt64, startDate, renewalDate sql.NullTime) {
	if godfather.Valid {
		m.Godfather = &godfather.Int64
	}
	if startDate.Valid {
		m.SubscriptionStartDate = &startDate.Time
	}
	if renewalDate.Valid {
		m.SubscriptionRenewalDate = &renewalDate.Time
	}
}
