package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/model"
)

// ReportRepo runs the read-only analytics queries.  They read committed
// state only and never lock.
type ReportRepo struct {
	db *database.DB
}

func NewReportRepo(db *database.DB) *ReportRepo { return &ReportRepo{db: db} }

// TopSpenders ranks students by package plus merchandise spend, highest
// first.  Ties share a rank.
func (r *ReportRepo) TopSpenders(ctx context.Context, limit int) ([]model.UserSpend, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `WITH pkg AS (
        SELECT up.user_id, SUM(p.price) AS amount
          FROM user_packages up JOIN packages p ON p.package_id = up.package_id
         GROUP BY up.user_id
    ), merch AS (
        SELECT um.user_id, SUM(m.price) AS amount
          FROM user_merch um JOIN merch_items m ON m.merch_id = um.merch_id
         GROUP BY um.user_id
    ), spend AS (
        SELECT u.user_id, u.username, u.email,
               COALESCE(pkg.amount, 0) AS spend_packages,
               COALESCE(merch.amount, 0) AS spend_merch,
               COALESCE(pkg.amount, 0) + COALESCE(merch.amount, 0) AS total_spend
          FROM users u
          LEFT JOIN pkg ON pkg.user_id = u.user_id
          LEFT JOIN merch ON merch.user_id = u.user_id
    )
    SELECT user_id, username, email, spend_packages, spend_merch, total_spend,
           RANK() OVER (ORDER BY total_spend DESC) AS spend_rank
      FROM spend
     ORDER BY total_spend DESC, user_id
     LIMIT ?`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []model.UserSpend{}
	for rows.Next() {
		var s model.UserSpend
		if err := rows.Scan(&s.UserID, &s.Username, &s.Email,
			&s.SpendPackages, &s.SpendMerch, &s.TotalSpend, &s.SpendRank); err != nil {
			return nil, err
		}
		s.SpendPackages = s.SpendPackages.Round(2)
		s.SpendMerch = s.SpendMerch.Round(2)
		s.TotalSpend = s.TotalSpend.Round(2)
		list = append(list, s)
	}
	return list, rows.Err()
}

// ClassUtilization reports booked seats per class with a dense rank of
// utilization within each day.  Ordered by date, start time and class id.
func (r *ReportRepo) ClassUtilization(ctx context.Context) ([]model.ClassUtilization, error) {
	const q = `SELECT class_id, date, start_time, location, capacity, seats_available,
       DENSE_RANK() OVER (PARTITION BY date ORDER BY (capacity - seats_available) * 1.0 / capacity DESC) AS daily_rank
  FROM classes
 ORDER BY date, start_time, class_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hundred := decimal.NewFromInt(100)
	list := []model.ClassUtilization{}
	for rows.Next() {
		var (
			u    model.ClassUtilization
			date time.Time
		)
		if err := rows.Scan(&u.ClassID, &date, &u.StartTime, &u.Location,
			&u.Capacity, &u.SeatsAvailable, &u.DailyRank); err != nil {
			return nil, err
		}
		u.Date = date.Format(DateLayout)
		u.Booked = u.Capacity - u.SeatsAvailable
		u.UtilizationPct = decimal.NewFromInt(int64(u.Booked)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(u.Capacity))).
			Round(2)
		list = append(list, u)
	}
	return list, rows.Err()
}

// TrainingPopularityMonthly counts bookings per training per class month,
// ranked within each month.  Latest month first.
func (r *ReportRepo) TrainingPopularityMonthly(ctx context.Context) ([]model.TrainingPopularity, error) {
	month := r.db.Dialect.MonthOf("c.date")
	q := `WITH pop AS (
        SELECT t.training_id, t.training_name, ` + month + ` AS month, COUNT(*) AS num_bookings
          FROM class_bookings b
          JOIN classes c ON c.class_id = b.class_id
          JOIN class_trainings ct ON ct.class_id = c.class_id
          JOIN trainings t ON t.training_id = ct.training_id
         GROUP BY t.training_id, t.training_name, ` + month + `
    )
    SELECT training_id, training_name, month, num_bookings,
           RANK() OVER (PARTITION BY month ORDER BY num_bookings DESC) AS rank_in_month
      FROM pop
     ORDER BY month DESC, rank_in_month, training_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []model.TrainingPopularity{}
	for rows.Next() {
		var p model.TrainingPopularity
		if err := rows.Scan(&p.TrainingID, &p.TrainingName, &p.Month, &p.NumBookings, &p.RankInMonth); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
