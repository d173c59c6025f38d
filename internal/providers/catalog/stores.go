package catalog

import (
	"slices"
	"time"
)

// Options tune the demo stores as a group.
type Options struct {
	PriceJitter bool
	FailureRate float64
	DelayMin    time.Duration
	DelayMax    time.Duration
}

// DemoProviders returns the three demo stores in fan-out order.
func DemoProviders(opts Options) []*Provider {
	return []*Provider{
		NewProvider(Config{
			Name: "amazon", Label: "Amazon (demo)", Store: "Amazon",
			Products: amazonProducts, PriceJitter: jitterIf(opts.PriceJitter, 0.05),
			FailureRate: opts.FailureRate, DelayMin: opts.DelayMin, DelayMax: opts.DelayMax,
		}),
		NewProvider(Config{
			Name: "magalu", Label: "Magazine Luiza (demo)", Store: "Magazine Luiza",
			Products: magaluProducts, PriceJitter: jitterIf(opts.PriceJitter, 0.07),
			FailureRate: opts.FailureRate, DelayMin: opts.DelayMin, DelayMax: opts.DelayMax,
		}),
		NewProvider(Config{
			Name: "casasbahia", Label: "Casas Bahia (demo)", Store: "Casas Bahia",
			Products: casasBahiaProducts, PriceJitter: jitterIf(opts.PriceJitter, 0.10),
			FailureRate: opts.FailureRate, DelayMin: opts.DelayMin, DelayMax: opts.DelayMax,
		}),
	}
}

func jitterIf(enabled bool, amount float64) float64 {
	if !enabled {
		return 0
	}
	return amount
}

func sortedKeywords(products map[string][]Product) []string {
	keys := make([]string, 0, len(products))
	for key := range products {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

var amazonProducts = map[string][]Product{
	"iphone": {
		{Title: "Apple iPhone 13 128GB - Azul", Price: 4299.00, URL: "https://amazon.com.br/iphone13-128gb-azul", Metadata: map[string]string{"asin": "B09G9FPHY6", "rating": "4.5", "prime": "true"}},
		{Title: "Apple iPhone 13 128GB - Preto", Price: 4399.00, URL: "https://amazon.com.br/iphone13-128gb-preto", Metadata: map[string]string{"asin": "B09G9D8KRQ", "rating": "4.6", "prime": "true"}},
		{Title: "Apple iPhone 13 128GB - Branco", Price: 4199.00, URL: "https://amazon.com.br/iphone13-128gb-branco", Metadata: map[string]string{"asin": "B09G9HR5T7", "rating": "4.4", "prime": "false"}},
	},
	"notebook": {
		{Title: "Dell Inspiron 15 3000 - i5, 8GB RAM, 256GB SSD", Price: 3299.00, URL: "https://amazon.com.br/dell-inspiron-15", Metadata: map[string]string{"asin": "B08N5WRWNW", "rating": "4.2"}},
		{Title: "Acer Aspire 5 - AMD Ryzen 5, 8GB RAM, 512GB SSD", Price: 2899.00, URL: "https://amazon.com.br/acer-aspire-5", Metadata: map[string]string{"asin": "B08RZ4L9KQ", "rating": "4.1"}},
	},
	"tv": {
		{Title: `Samsung Smart TV 50" 4K UHD`, Price: 2499.00, URL: "https://amazon.com.br/samsung-tv-50-4k", Metadata: map[string]string{"asin": "B08ZJWLM2Z", "rating": "4.3"}},
	},
}

var magaluProducts = map[string][]Product{
	"iphone": {
		{Name: "iPhone 13 Apple 128GB Azul - Distribuidor Autorizado", Value: 4599.00, URL: "https://magazinevoce.com.br/iphone13-128gb-azul", Metadata: map[string]string{"productId": "ML-12345", "brand": "Apple"}},
		{Name: "iPhone 13 Apple 128GB Preto - Distribuidor Autorizado", Value: 4699.00, URL: "https://magazinevoce.com.br/iphone13-128gb-preto", Metadata: map[string]string{"productId": "ML-12346", "brand": "Apple"}},
		{Name: "iPhone 13 Apple 128GB Branco - Distribuidor Autorizado", Value: 4499.00, URL: "https://magazinevoce.com.br/iphone13-128gb-branco", Metadata: map[string]string{"productId": "ML-12347", "brand": "Apple"}},
	},
	"notebook": {
		{Name: "Notebook Dell Inspiron 15 3000 i5 8GB 256GB SSD", Value: 3499.00, URL: "https://magazinevoce.com.br/dell-inspiron-15", Metadata: map[string]string{"brand": "Dell"}},
		{Name: "Notebook Acer Aspire 5 Ryzen 5 8GB 512GB SSD", Value: 3199.00, URL: "https://magazinevoce.com.br/acer-aspire-5", Metadata: map[string]string{"brand": "Acer"}},
	},
	"tv": {
		{Name: `Smart TV Samsung 50" UHD 4K LED`, Value: 2799.00, URL: "https://magazinevoce.com.br/samsung-tv-50-4k", Metadata: map[string]string{"brand": "Samsung"}},
	},
}

var casasBahiaProducts = map[string][]Product{
	"iphone": {
		{Name: "iPhone 13 Apple 128GB Azul - Garantia Estendida", Cost: 4799.00, URL: "https://casasbahia.com.br/iphone13-128gb-azul", Metadata: map[string]string{"sku": "CB-56789", "warranty": "12 meses"}},
		{Name: "iPhone 13 Apple 128GB Preto - Com Fone de Ouvido", Cost: 4899.00, URL: "https://casasbahia.com.br/iphone13-128gb-preto", Metadata: map[string]string{"sku": "CB-56790", "warranty": "24 meses"}},
		{Name: "iPhone 13 Apple 128GB Branco - Kit Completo", Cost: 4699.00, URL: "https://casasbahia.com.br/iphone13-128gb-branco", Metadata: map[string]string{"sku": "CB-56791", "warranty": "12 meses"}},
	},
	"notebook": {
		{Name: "Notebook Dell Inspiron 15 3000 i5 8GB 256GB SSD", Cost: 3699.00, URL: "https://casasbahia.com.br/dell-inspiron-15", Metadata: map[string]string{"sku": "CB-67890"}},
		{Name: "Notebook Acer Aspire 5 Ryzen 5 8GB 512GB SSD", Cost: 3399.00, URL: "https://casasbahia.com.br/acer-aspire-5", Metadata: map[string]string{"sku": "CB-67891"}},
	},
	"tv": {
		{Name: `Smart TV Samsung 50" UHD 4K LED - Entrega Imediata`, Cost: 2999.00, URL: "https://casasbahia.com.br/samsung-tv-50-4k", Metadata: map[string]string{"sku": "CB-78901", "warranty": "36 meses"}},
	},
}
