package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier はパスワードのハッシュ化と照合を行います。状態は持ちません。
type CredentialVerifier interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// BcryptVerifier は bcrypt による CredentialVerifier です。
type BcryptVerifier struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewBcryptVerifier は BcryptVerifier を作成します。範囲外のコストは bcrypt.DefaultCost に丸めます。
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

// Hash はパスワードをハッシュ化します。72バイトを超える場合は bcrypt.ErrPasswordTooLong を返します。
func (v *BcryptVerifier) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify はパスワードとハッシュを照合します。
// hash が空の場合もダミーハッシュと比較し、ユーザー不在時と不一致時の処理時間を揃えます。
func (v *BcryptVerifier) Verify(password, hash string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(v.dummyHash(), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (v *BcryptVerifier) dummyHash() []byte {
	v.dummyOnce.Do(func() {
		v.dummy, _ = bcrypt.GenerateFromPassword([]byte("cj-movies-dummy-password"), v.cost)
	})
	return v.dummy
}
