package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JangWoody/woody-service-back/internal/dto"
	"github.com/JangWoody/woody-service-back/internal/model"
	"github.com/JangWoody/woody-service-back/internal/repository"
)

// ── 学生名册业务错误 ──

var (
	ErrStudentNotFound = errors.New("学生不存在")
	ErrDuplicateName   = errors.New("该学生姓名已登记")
	ErrEmptyName       = fmt.Errorf("%w: 학생 이름을 입력하세요", ErrValidation)
	ErrNameTooLong     = fmt.Errorf("%w: 학생 이름이 너무 깁니다", ErrValidation)
)

const maxNameLength = 64

// StudentService 学生名册业务接口
type StudentService interface {
	Add(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error)
	Remove(ctx context.Context, id string) error
	IsRegistered(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]dto.StudentResponse, error)
}

type studentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, logger: logger}
}

// normalizeName 去除首尾空白并校验
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len([]rune(name)) > maxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

func (s *studentService) Add(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Student.ExistsByName(ctx, name)
	if err != nil {
		s.logger.Error("查询学生失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateName
	}

	student := &model.Student{Name: name}
	if err := s.repo.Student.Create(ctx, student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		s.logger.Error("登记学生失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("学生已登记", zap.String("id", student.ID), zap.String("name", name))
	return toStudentResponse(student), nil
}

// Remove 删除学生，不影响其已有预约
func (s *studentService) Remove(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrStudentNotFound
	}

	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Student.Delete(ctx, id); err != nil {
		// 并发删除时可能已不存在
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		s.logger.Error("删除学生失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("学生已删除", zap.String("id", id), zap.String("name", student.Name))
	return nil
}

func (s *studentService) IsRegistered(ctx context.Context, name string) (bool, error) {
	return s.repo.Student.ExistsByName(ctx, name)
}

func (s *studentService) List(ctx context.Context) ([]dto.StudentResponse, error) {
	students, err := s.repo.Student.List(ctx)
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, *toStudentResponse(&students[i]))
	}
	return result, nil
}

func toStudentResponse(st *model.Student) *dto.StudentResponse {
	return &dto.StudentResponse{
		ID:        st.ID,
		Name:      st.Name,
		CreatedAt: st.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
