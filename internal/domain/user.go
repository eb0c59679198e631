package domain

import (
	"encoding/json"
)

// User 表示已登录的顾客，登录成功后序列化到 user_data
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// UnmarshalJSON 兼容 _id
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// SendOTPRequest 请求发送短信验证码
type SendOTPRequest struct {
	Phone string `json:"phone"`
}

// VerifyOTPRequest 校验短信验证码
type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
	Name  string `json:"name,omitempty"`
}

// LoginRequest 邮箱密码登录
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult 登录/验证码校验成功后的结果
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// UnmarshalJSON 兼容 customer 字段和 accessToken 字段
func (a *AuthResult) UnmarshalJSON(data []byte) error {
	var aux struct {
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
		User        *User  `json:"user"`
		Customer    *User  `json:"customer"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.Token = aux.Token
	if a.Token == "" {
		a.Token = aux.AccessToken
	}
	a.User = aux.User
	if a.User == nil {
		a.User = aux.Customer
	}
	return nil
}
