package user

import (
	"errors"
	"time"
)

type Gender string

const (
	GenderMale         Gender = "MALE"
	GenderFemale       Gender = "FEMALE"
	GenderTransgender  Gender = "TRANSGENDER"
	GenderNeutral      Gender = "GENDER_NEUTRAL"
	GenderNonBinary    Gender = "NON_BINARY"
	GenderNotSpecified Gender = "NOT_SPECIFIED"
)

// Genders lists every accepted value in display order.
var Genders = []Gender{
	GenderMale,
	GenderFemale,
	GenderTransgender,
	GenderNeutral,
	GenderNonBinary,
	GenderNotSpecified,
}

func (g Gender) Valid() bool {
	for _, v := range Genders {
		if g == v {
			return true
		}
	}
	return false
}

// OrDefault maps the empty value to NOT_SPECIFIED.
func (g Gender) OrDefault() Gender {
	if g == "" {
		return GenderNotSpecified
	}
	return g
}

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Gender    Gender    `json:"gender"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is a listing row; RecordCount is computed per query, never stored.
type Summary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Gender      Gender `json:"gender"`
	RecordCount int    `json:"recordCount"`
}

type CreateRequest struct {
	Name   string
	Email  string
	Gender Gender
}

// ListFilter is normalized by the service before it reaches a repo.
type ListFilter struct {
	Page     int
	PageSize int
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type PageMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalUsers int `json:"totalUsers"`
	TotalPages int `json:"totalPages"`
}

type Page struct {
	Data []Summary `json:"data"`
	Meta PageMeta  `json:"meta"`
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("user email already exists")
)
