package db

import (
	"context"
	"fmt"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func originalPrice(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(money(s))
}

var seedCategories = []model.Category{
	{Name: "Analgésicos", Description: "Medicamentos para alívio da dor", Icon: "💊", Color: "#3B82F6"},
	{Name: "Vitaminas", Description: "Suplementos vitamínicos", Icon: "🧬", Color: "#10B981"},
	{Name: "Anti-inflamatórios", Description: "Medicamentos anti-inflamatórios", Icon: "🔥", Color: "#EF4444"},
	{Name: "Dermocosméticos", Description: "Cuidados com a pele", Icon: "✨", Color: "#8B5CF6"},
	{Name: "Gastroenterologia", Description: "Medicamentos para o sistema digestivo", Icon: "🫁", Color: "#F59E0B"},
}

var seedProducts = []model.Product{
	{
		Name:             "Dipirona Sódica 500mg - 20 comprimidos",
		Description:      "Analgésico e antitérmico indicado para o alívio da dor e da febre. Medicamento de ação rápida e eficaz.",
		Price:            money("8.90"),
		OriginalPrice:    originalPrice("12.50"),
		Stock:            150,
		Category:         "Analgésicos",
		ImageURL:         "/assets/products/dipirona.jpg",
		Manufacturer:     "Medley",
		ActiveIngredient: "Dipirona Sódica",
		Dosage:           "500mg",
		Form:             "Comprimidos",
		SKU:              "DIP500-20",
		EAN:              "7891234567890",
	},
	{
		Name:             "Vitamina D3 2000UI - 60 cápsulas",
		Description:      "Suplemento vitamínico essencial para fortalecimento dos ossos e sistema imunológico. Fórmula de alta absorção.",
		Price:            money("24.90"),
		Stock:            75,
		Category:         "Vitaminas",
		ImageURL:         "/assets/products/vitamina-d3.jpg",
		Manufacturer:     "Vitamedic",
		ActiveIngredient: "Colecalciferol",
		Dosage:           "2000UI",
		Form:             "Cápsulas",
		SKU:              "VIT-D3-2000",
		EAN:              "7891234567891",
	},
	{
		Name:             "Protetor Solar FPS 60 - 120ml",
		Description:      "Proteção solar facial e corporal de amplo espectro. Fórmula resistente à água e não oleosa.",
		Price:            money("45.90"),
		OriginalPrice:    originalPrice("52.90"),
		Stock:            45,
		Category:         "Dermocosméticos",
		ImageURL:         "/assets/products/protetor-solar.jpg",
		Manufacturer:     "La Roche-Posay",
		ActiveIngredient: "Octinoxato, Oxibenzona",
		Dosage:           "FPS 60",
		Form:             "Loção",
		SKU:              "PROT-FPS60",
		EAN:              "7891234567892",
	},
	{
		Name:                 "Omeprazol 20mg - 28 cápsulas",
		Description:          "Inibidor da bomba de prótons indicado para tratamento de úlceras e refluxo gastroesofágico.",
		Price:                money("15.50"),
		Stock:                89,
		PrescriptionRequired: true,
		Category:             "Gastroenterologia",
		ImageURL:             "/assets/products/omeprazol.jpg",
		Manufacturer:         "Eurofarma",
		ActiveIngredient:     "Omeprazol",
		Dosage:               "20mg",
		Form:                 "Cápsulas",
		SKU:                  "OME-20-28",
		EAN:                  "7891234567893",
	},
	{
		Name:             "Paracetamol 500mg - 20 comprimidos",
		Description:      "Analgésico e antitérmico de uso geral. Indicado para dores leves a moderadas e febre.",
		Price:            money("6.50"),
		OriginalPrice:    originalPrice("8.90"),
		Stock:            200,
		Category:         "Analgésicos",
		ImageURL:         "/assets/products/paracetamol.jpg",
		Manufacturer:     "EMS",
		ActiveIngredient: "Paracetamol",
		Dosage:           "500mg",
		Form:             "Comprimidos",
		SKU:              "PAR-500-20",
		EAN:              "7891234567894",
	},
	{
		Name:             "Diclofenaco Gel 1% - 60g",
		Description:      "Anti-inflamatório tópico para dores musculares e articulares. Alívio rápido e duradouro.",
		Price:            money("18.90"),
		Stock:            67,
		Category:         "Anti-inflamatórios",
		ImageURL:         "/assets/products/diclofenaco.jpg",
		Manufacturer:     "Novartis",
		ActiveIngredient: "Diclofenaco Dietilamônio",
		Dosage:           "1%",
		Form:             "Gel",
		SKU:              "DIC-GEL-60",
		EAN:              "7891234567895",
	},
}

// Seed は空のDBにだけ初期カテゴリと商品を入れる。入れたらtrue。
func Seed(ctx context.Context, db *gorm.DB) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var catCount int64
		if err := tx.Model(&model.Category{}).Count(&catCount).Error; err != nil {
			return err
		}
		if catCount == 0 {
			cats := append([]model.Category(nil), seedCategories...)
			if err := tx.Create(&cats).Error; err != nil {
				return err
			}
		}

		products := make([]model.Product, 0, len(seedProducts))
		for _, p := range seedProducts {
			p.InStock = p.Stock > 0
			p.IsActive = true
			products = append(products, p)
		}
		return tx.Create(&products).Error
	})
	if err != nil {
		return false, fmt.Errorf("seed catalog: %w", err)
	}
	return true, nil
}
