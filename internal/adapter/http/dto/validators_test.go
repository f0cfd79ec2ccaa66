package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

func bindingValidate(v any) error {
	return binding.Validator.ValidateStruct(v)
}

func TestValidateMoney(t *testing.T) {
	cases := []struct {
		amount string
		valid  bool
	}{
		{"100.00", true},
		{"0.01", true},
		{"50000", true},
		{"0", false},
		{"0.00", false},
		{"-5.00", false},
		{"1.001", false},
		{"abc", false},
		{"", false},
	}
	for _, tc := range cases {
		req := DepositRequest{AccountID: "b7e4f9d2-5a3c-4e8b-9f1d-2c6a8e0b4d7f", Amount: tc.amount}
		err := bindingValidate(&req)
		if tc.valid {
			assert.NoError(t, err, "amount %q", tc.amount)
		} else {
			assert.Error(t, err, "amount %q", tc.amount)
		}
	}
}

func TestValidateSafeID(t *testing.T) {
	cases := []struct {
		number string
		valid  bool
	}{
		{"990011223344", true},
		{"DE89-3704-0044", true},
		{"acct.primary", true},
		{"<script>", false},
		{"has space", false},
	}
	for _, tc := range cases {
		req := BeneficiaryRequest{AccountNumber: tc.number, Nickname: "payee"}
		err := bindingValidate(&req)
		if tc.valid {
			assert.NoError(t, err, "number %q", tc.number)
		} else {
			assert.Error(t, err, "number %q", tc.number)
		}
	}
}

func TestSanitizeStruct(t *testing.T) {
	req := &RegisterRequest{
		Name:  "  <b>Alice</b>  ",
		Email: " alice@example.com ",
	}
	SanitizeStruct(req)
	assert.Equal(t, "&lt;b&gt;Alice&lt;/b&gt;", req.Name)
	assert.Equal(t, "alice@example.com", req.Email)
}

func TestSanitizeStruct_NonStruct(t *testing.T) {
	s := "plain"
	// Must not panic on non-struct input.
	SanitizeStruct(&s)
	SanitizeStruct(nil)
}
