package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	repo "github.com/henriquelv/pharma-well-care/internal/repository"
	"github.com/henriquelv/pharma-well-care/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func existingCategories() []model.Category {
	return []model.Category{
		{ID: 1, Name: "Analgésicos"},
		{ID: 2, Name: "Vitaminas"},
	}
}

func TestCategoryUsecase_Create(t *testing.T) {
	cats := new(CategoryRepoMock)
	cats.On("List", mock.Anything).Return(existingCategories(), nil)
	cats.On("Create", mock.Anything, mock.MatchedBy(func(c model.Category) bool {
		return c.Name == "Higiene" && c.Color == "#0EA5E9"
	})).Return(model.Category{ID: 3, Name: "Higiene", Color: "#0EA5E9"}, nil)

	uc := usecase.NewCategoryUsecase(cats)
	out, err := uc.Create(context.Background(), usecase.CategoryInput{Name: "  Higiene ", Color: "#0EA5E9"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.ID)
	cats.AssertExpectations(t)
}

func TestCategoryUsecase_Create_Validation(t *testing.T) {
	cats := new(CategoryRepoMock)
	cats.On("List", mock.Anything).Return(existingCategories(), nil)
	uc := usecase.NewCategoryUsecase(cats)

	_, err := uc.Create(context.Background(), usecase.CategoryInput{Name: " "})
	assertHTTPError(t, err, http.StatusBadRequest, "name required")

	//大文字小文字は区別しない
	_, err = uc.Create(context.Background(), usecase.CategoryInput{Name: "VITAMINAS"})
	assertHTTPError(t, err, http.StatusConflict, "category already exists")

	cats.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCategoryUsecase_Update(t *testing.T) {
	cats := new(CategoryRepoMock)
	cats.On("List", mock.Anything).Return(existingCategories(), nil)
	cats.On("Update", mock.Anything, mock.Anything).Return(nil)
	cats.On("FindByID", mock.Anything, int64(2)).Return(model.Category{ID: 2, Name: "vitaminas", Icon: "🧬"}, nil)

	uc := usecase.NewCategoryUsecase(cats)

	//自分自身の名前なら重複にならない
	out, err := uc.Update(context.Background(), 2, usecase.CategoryInput{Name: "vitaminas", Icon: "🧬"})
	require.NoError(t, err)
	assert.Equal(t, "🧬", out.Icon)

	_, err = uc.Update(context.Background(), 2, usecase.CategoryInput{Name: "analgésicos"})
	assertHTTPError(t, err, http.StatusConflict, "category already exists")
}

func TestCategoryUsecase_UpdateAndDelete_NotFound(t *testing.T) {
	cats := new(CategoryRepoMock)
	cats.On("List", mock.Anything).Return(existingCategories(), nil)
	cats.On("Update", mock.Anything, mock.Anything).Return(repo.ErrNotFound)
	cats.On("Delete", mock.Anything, int64(9)).Return(repo.ErrNotFound)

	uc := usecase.NewCategoryUsecase(cats)

	_, err := uc.Update(context.Background(), 9, usecase.CategoryInput{Name: "Nova"})
	assertHTTPError(t, err, http.StatusNotFound, "not found")

	err = uc.Delete(context.Background(), 9)
	assertHTTPError(t, err, http.StatusNotFound, "not found")

	err = uc.Delete(context.Background(), 0)
	assertHTTPError(t, err, http.StatusBadRequest, "invalid id")
}
