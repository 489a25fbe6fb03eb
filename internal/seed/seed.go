package seed

import (
	"context"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

//go:embed data/candidates.csv
var dataFS embed.FS

var expectedHeaders = []string{"姓名", "邮箱", "电话", "城市", "工作年限", "应聘岗位", "状态", "负责人"}

type candidateRow struct {
	Candidate *domain.Candidate
	Owners    []string // 负责人的中文姓名，第一个是创建者
}

// parseCandidates 读取 CSV，每一行是一个候选人及其负责人
func parseCandidates(r io.Reader) ([]candidateRow, error) {
	reader := csv.NewReader(r)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	if len(headers) != len(expectedHeaders) {
		return nil, fmt.Errorf("表头应有 %d 列，实际为 %d 列", len(expectedHeaders), len(headers))
	}
	for i, h := range expectedHeaders {
		if strings.TrimSpace(headers[i]) != h {
			return nil, fmt.Errorf("第 %d 列表头应为 %q", i+1, h)
		}
	}

	rows := make([]candidateRow, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("第 %d 行读取失败: %w", line, err)
		}

		status := domain.CandidateStatus(record[6])
		if !status.Valid() {
			return nil, fmt.Errorf("第 %d 行状态 %q 无效", line, record[6])
		}

		owners := make([]string, 0)
		for _, name := range strings.Split(record[7], "、") {
			if name = strings.TrimSpace(name); name != "" {
				owners = append(owners, name)
			}
		}
		if len(owners) == 0 {
			return nil, fmt.Errorf("第 %d 行缺少负责人", line)
		}

		rows = append(rows, candidateRow{
			Candidate: &domain.Candidate{
				Name:       record[0],
				Email:      record[1],
				Phone:      record[2],
				Location:   record[3],
				Experience: record[4],
				Role:       record[5],
				Status:     status,
			},
			Owners: owners,
		})
	}

	return rows, nil
}

// usernameOf 把中文姓名转换成全拼的用户名，例如 "李明" -> "liming"
func usernameOf(chineseName string) string {
	return strings.Join(pinyin.LazyConvert(chineseName, nil), "")
}

type seeder struct {
	repo     *repository.Repository
	password string
	domain   string
	users    map[string]*domain.User // 以中文姓名为键
}

// ensureOwner 返回负责人对应的目录用户，不存在时连同身份一起创建
func (s *seeder) ensureOwner(ctx context.Context, chineseName string) (*domain.User, error) {
	if u, ok := s.users[chineseName]; ok {
		return u, nil
	}

	name := usernameOf(chineseName)
	u, err := s.repo.GetUserByName(ctx, name)
	if err == nil {
		s.users[chineseName] = u
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	identity := &domain.Identity{
		UID:          uuid.NewString(),
		Email:        name + "@" + s.domain,
		PasswordHash: string(hash),
		DisplayName:  name,
	}
	if err := s.repo.CreateIdentity(ctx, identity); err != nil {
		return nil, err
	}

	u = &domain.User{UID: identity.UID, Name: name, Email: identity.Email}
	if err := s.repo.PutUser(ctx, u); err != nil {
		return nil, err
	}

	s.users[chineseName] = u
	return u, nil
}

// SeedRealData 导入内置的候选人数据，负责人会被创建为可以登录的用户
func SeedRealData(ctx context.Context, r *repository.Repository, password, emailDomain string) {
	file, err := dataFS.Open("data/candidates.csv")
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	rows, err := parseCandidates(file)
	if err != nil {
		slog.Error("解析候选人数据失败", "error", err)
		return
	}

	s := &seeder{
		repo:     r,
		password: password,
		domain:   emailDomain,
		users:    make(map[string]*domain.User),
	}

	cnt := 0
	for _, row := range rows {
		c := row.Candidate
		c.ID = uuid.NewString()

		for _, owner := range row.Owners {
			u, err := s.ensureOwner(ctx, owner)
			if err != nil {
				slog.Error("无法创建负责人", "name", owner, "error", err)
				break
			}
			c.AssignedUsers = append(c.AssignedUsers, u.UID)
		}
		if len(c.AssignedUsers) != len(row.Owners) {
			continue
		}

		creator := s.users[row.Owners[0]]
		c.CreatedBy = creator.UID

		if err := r.CreateCandidate(ctx, c); err != nil {
			slog.Error("无法插入候选人", "name", c.Name, "error", err)
			continue
		}

		if err := r.AppendHistoryEvent(ctx, &domain.HistoryEvent{
			ID:          uuid.NewString(),
			CandidateID: c.ID,
			AuthorID:    creator.UID,
			AuthorName:  creator.Name,
			Action:      domain.ActionStatusUpdated,
			Details:     fmt.Sprintf("Candidate profile for %s was created", c.Name),
		}); err != nil {
			slog.Error("无法写入审计记录", "name", c.Name, "error", err)
		}

		cnt++
	}

	slog.Info("导入候选人成功", "count", cnt, "users", len(s.users))
}
