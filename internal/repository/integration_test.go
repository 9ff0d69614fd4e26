//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JangWoody/woody-service-back/internal/model"
	"github.com/JangWoody/woody-service-back/internal/repository"
	"github.com/JangWoody/woody-service-back/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=woody password=woody_password dbname=woody_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// withDate 返回本测试独占的日期，并在前后清理该日期的数据
func withDate(t *testing.T, date string) string {
	t.Helper()
	clean := func() {
		testDB.Where("schedule_date = ?", date).Delete(&model.Reservation{})
	}
	clean()
	t.Cleanup(clean)
	return date
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func insert(t *testing.T, repo *repository.Repository, name, date string, slot model.SlotTime) *model.Reservation {
	t.Helper()
	r := &model.Reservation{StudentName: name, Date: date, Time: slot}
	if err := repo.Reservation.Insert(context.Background(), r); err != nil {
		t.Fatalf("插入预约失败: %v", err)
	}
	return r
}

// ═══════════════════════════════════════════════════════════
// StudentRepository
// ═══════════════════════════════════════════════════════════

func TestStudentRepo_UniqueName(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)
	name := uniqueName("학생")

	s := &model.Student{Name: name}
	if err := repo.Student.Create(ctx, s); err != nil {
		t.Fatalf("创建学生失败: %v", err)
	}
	t.Cleanup(func() { _ = repo.Student.Delete(ctx, s.ID) })

	err := repo.Student.Create(ctx, &model.Student{Name: name})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("重名应返回 ErrDuplicatedKey，实际: %v", err)
	}

	ok, err := repo.Student.ExistsByName(ctx, name)
	if err != nil || !ok {
		t.Errorf("ExistsByName 应为 true，got %v %v", ok, err)
	}

	if err := repo.Student.Delete(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("删除不存在的学生应返回 ErrRecordNotFound，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// ReservationRepository
// ═══════════════════════════════════════════════════════════

func TestReservationRepo_DuplicateKey(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)
	date := withDate(t, "2099-01-01")
	name := uniqueName("a")

	insert(t, repo, name, date, "10:00")
	err := repo.Reservation.Insert(ctx, &model.Reservation{StudentName: name, Date: date, Time: "10:00"})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("同一学生同一槽位应冲突，实际: %v", err)
	}

	// 同一学生其他槽位不冲突
	insert(t, repo, name, date, "11:00")
}

func TestReservationRepo_SingleConfirmedPerSlot(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)
	date := withDate(t, "2099-01-02")

	a := insert(t, repo, uniqueName("a"), date, "10:00")
	b := insert(t, repo, uniqueName("b"), date, "10:00")

	if err := repo.Reservation.ConfirmByID(ctx, a.ID); err != nil {
		t.Fatalf("确认失败: %v", err)
	}
	if err := repo.Reservation.ConfirmByID(ctx, b.ID); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("同一槽位第二条 confirmed 应被部分唯一索引拒绝，实际: %v", err)
	}
}

func TestReservationRepo_ConfirmTransaction(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)
	date := withDate(t, "2099-01-03")

	winner := insert(t, repo, uniqueName("w"), date, "15:00")
	insert(t, repo, uniqueName("x"), date, "15:00")
	insert(t, repo, uniqueName("y"), date, "15:00")
	other := insert(t, repo, uniqueName("z"), date, "16:00")

	var evicted int64
	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Reservation.ConfirmByID(ctx, winner.ID); err != nil {
			return err
		}
		n, err := tx.Reservation.DeleteSiblings(ctx, date, "15:00", winner.ID)
		evicted = n
		return err
	})
	if err != nil {
		t.Fatalf("事务失败: %v", err)
	}
	if evicted != 2 {
		t.Errorf("期望移除 2 条，实际 %d", evicted)
	}

	list, _ := repo.Reservation.FindBySlot(ctx, date, "15:00")
	if len(list) != 1 || list[0].ID != winner.ID || !list[0].IsConfirmed() {
		t.Errorf("槽位应只剩已确认的 winner: %+v", list)
	}
	if _, err := repo.Reservation.FindByID(ctx, other.ID); err != nil {
		t.Errorf("其他槽位不应受影响: %v", err)
	}
}

func TestReservationRepo_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)
	date := withDate(t, "2099-01-04")

	a := insert(t, repo, uniqueName("a"), date, "12:00")
	insert(t, repo, uniqueName("b"), date, "12:00")

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Reservation.ConfirmByID(ctx, a.ID); err != nil {
			return err
		}
		if _, err := tx.Reservation.DeleteSiblings(ctx, date, "12:00", a.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("期望返回 boom，实际: %v", err)
	}

	list, _ := repo.Reservation.FindBySlot(ctx, date, "12:00")
	if len(list) != 2 {
		t.Fatalf("回滚后应保留 2 条，实际 %d", len(list))
	}
	for _, r := range list {
		if r.IsConfirmed() {
			t.Errorf("回滚后不应存在 confirmed: %+v", r)
		}
	}
}

func TestReservationRepo_ListAndPurge(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)
	d1 := withDate(t, "2099-02-01")
	d2 := withDate(t, "2099-02-02")
	name := uniqueName("list")

	r1 := insert(t, repo, name, d1, "10:00")
	insert(t, repo, name, d2, "11:00")
	insert(t, repo, uniqueName("other"), d1, "10:00")

	list, err := repo.Reservation.List(ctx, repository.ReservationFilter{StudentName: name, From: d1, To: d1})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(list) != 1 || list[0].ID != r1.ID {
		t.Errorf("筛选结果不符: %+v", list)
	}

	stale, err := repo.Reservation.ListPendingBefore(ctx, d2)
	if err != nil {
		t.Fatalf("ListPendingBefore 失败: %v", err)
	}
	var ids []string
	for _, r := range stale {
		if r.Date == d1 {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) != 2 {
		t.Fatalf("期望 %s 有 2 条过期 pending，实际 %d", d1, len(ids))
	}

	n, err := repo.Reservation.DeleteByIDs(ctx, ids)
	if err != nil || n != 2 {
		t.Errorf("DeleteByIDs 期望删除 2 条，got %d %v", n, err)
	}
	if err := repo.Reservation.DeleteByID(ctx, r1.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("重复删除应返回 ErrRecordNotFound，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// AdminCredentialRepository
// ═══════════════════════════════════════════════════════════

func TestAdminCredentialRepo_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)
	testDB.Where("id = ?", model.AdminCredentialID).Delete(&model.AdminCredential{})

	created, err := repo.AdminCredential.CreateIfAbsent(ctx, &model.AdminCredential{PasswordHash: "h1"})
	if err != nil || !created {
		t.Fatalf("首次写入应成功，got %v %v", created, err)
	}
	created, err = repo.AdminCredential.CreateIfAbsent(ctx, &model.AdminCredential{PasswordHash: "h2"})
	if err != nil || created {
		t.Fatalf("已存在时不应覆盖，got %v %v", created, err)
	}

	if err := repo.AdminCredential.UpdatePasswordHash(ctx, "h3"); err != nil {
		t.Fatalf("更新密码失败: %v", err)
	}
	cred, err := repo.AdminCredential.Get(ctx)
	if err != nil || cred.PasswordHash != "h3" {
		t.Errorf("期望 hash=h3，got %+v %v", cred, err)
	}
}
