package utils

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GenerateUsernameFromChineseName 用拼音生成登录名，同时也是 @ 提及时使用的名字
func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomUser 生成一对身份账户和目录记录，两者共用同一个 uid
func GenerateRandomUser(password string, emailDomainName string) (*domain.Identity, *domain.User, error) {
	username := GenerateUsernameFromChineseName(GenerateRandomChineseName())
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	uid := uuid.NewString()
	email := username + "@" + emailDomainName

	identity := &domain.Identity{
		UID:          uid,
		Email:        email,
		PasswordHash: string(passwordHash),
		DisplayName:  username,
	}
	user := &domain.User{
		UID:   uid,
		Name:  username,
		Email: email,
	}

	return identity, user, nil
}

var candidateRoles = []string{"后端工程师", "前端工程师", "测试工程师", "产品经理", "运维工程师", "数据分析师"}
var candidateLocations = []string{"广州", "深圳", "北京", "上海", "杭州", "成都"}

// GenerateRandomCandidate 随机生成一个候选人，访问列表从 assignees 中随机挑选
func GenerateRandomCandidate(emailDomainName string, assignees []*domain.User) *domain.Candidate {
	fullName := GenerateRandomChineseName()

	c := &domain.Candidate{
		Name:       fullName,
		Email:      GenerateUsernameFromChineseName(fullName) + "@" + emailDomainName,
		Phone:      "1" + GenerateRandomDigits(10),
		Location:   candidateLocations[rand.Intn(len(candidateLocations))],
		Experience: string(digits[rand.Intn(10)]) + " 年",
		Role:       candidateRoles[rand.Intn(len(candidateRoles))],
		Status:     domain.StatusPending,
	}

	for _, u := range GenerateRandomSubset(assignees) {
		c.AssignedUsers = append(c.AssignedUsers, u.UID)
	}

	return c
}

func GenerateRandomDigits(length int) string {
	random_digits := make([]byte, length)
	for i := range random_digits {
		random_digits[i] = digits[rand.Intn(len(digits))]
	}
	return string(random_digits)
}

// 使用 Fisher-Yates 洗牌算法来生成一个非空随机子集
func GenerateRandomSubset[T any](arr []T) []T {
	if len(arr) == 0 {
		return nil
	}

	arrCopy := append([]T{}, arr...) // 复制数组，避免修改原数组

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rand.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	l := rand.Intn(len(arrCopy)) + 1
	return arrCopy[:l]
}
