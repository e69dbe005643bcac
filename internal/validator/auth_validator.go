package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

var emailLike = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ログインの入力を検証（DBに行く前の形だけのチェック）
func ValidateLogin(email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return ErrInvalidInput
	}

	// email形式
	if !isEmailLike(email) {
		return ErrInvalidInput
	}

	// bcryptは72バイトまでしか見ない
	if len(password) > 72 {
		return ErrInvalidInput
	}

	return nil
}

// 強制ログアウトの入力を検証
func ValidateForceLogout(actorUserID, targetUserID int64) error {
	if targetUserID <= 0 {
		return ErrInvalidInput
	}
	//自分自身は対象にしない
	if actorUserID == targetUserID {
		return ErrInvalidInput
	}
	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailLike.MatchString(s)
}
