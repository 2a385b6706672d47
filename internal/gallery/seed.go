package gallery

import (
	"context"
	"errors"
	"time"

	"github.com/yxshee/marfa-gallery/internal/platform/identifier"
	"github.com/yxshee/marfa-gallery/internal/platform/metrics"
	"github.com/yxshee/marfa-gallery/internal/platform/wallet"
)

type demoPiece struct {
	metadataURL string
	imageURL    string
	title       string
	description string
	mintedAt    string
	mintedBy    string
	tokenID     int64
}

var demoPieces = []demoPiece{
	{
		metadataURL: "https://gateway.pinata.cloud/ipfs/QmSampleMetadata1",
		imageURL:    "https://images.pexels.com/photos/29506612/pexels-photo-29506612.jpeg?auto=compress&cs=tinysrgb&w=1024&h=1024",
		title:       "Digital Dreams #1",
		description: "A vibrant exploration of digital landscapes and neon aesthetics.",
	},
	{
		metadataURL: "https://gateway.pinata.cloud/ipfs/QmSampleMetadata2",
		imageURL:    "https://images.pexels.com/photos/29506609/pexels-photo-29506609.jpeg?auto=compress&cs=tinysrgb&w=1024&h=1024",
		title:       "Abstract Harmony #2",
		description: "Flowing forms and electric colors merge into movement and energy.",
	},
	{
		metadataURL: "https://gateway.pinata.cloud/ipfs/QmSampleMetadata3",
		imageURL:    "https://images.pexels.com/photos/12961889/pexels-photo-12961889.jpeg?auto=compress&cs=tinysrgb&w=1024&h=1024",
		title:       "Gradient Genesis #3",
		description: "Soft gradients and sculptural forms in a meditative composition.",
	},
	{
		metadataURL: "https://gateway.pinata.cloud/ipfs/QmSampleMetadata4",
		imageURL:    "https://images.pexels.com/photos/29652327/pexels-photo-29652327.jpeg?auto=compress&cs=tinysrgb&w=1024&h=1024",
		title:       "Dark Matter #4",
		description: "The mysteries of space and form through dark, sculptural compositions.",
		mintedAt:    "2024-01-15",
		mintedBy:    "0x742d35cc6639c0532feb42387b22e3f0a1dd9527",
		tokenID:     1001,
	},
	{
		metadataURL: "https://gateway.pinata.cloud/ipfs/QmSampleMetadata5",
		imageURL:    "https://images.pexels.com/photos/33010867/pexels-photo-33010867.jpeg?auto=compress&cs=tinysrgb&w=1024&h=1024",
		title:       "Cyber Reflection #5",
		description: "The future of human-digital interaction through bold visual metaphors.",
		mintedAt:    "2024-01-20",
		mintedBy:    "0x8ba1f109551bd4328030126450ac136c4c0a5070",
		tokenID:     1002,
	},
	{
		metadataURL: "https://gateway.pinata.cloud/ipfs/QmSampleMetadata6",
		imageURL:    "https://images.pexels.com/photos/33012182/pexels-photo-33012182.jpeg?auto=compress&cs=tinysrgb&w=1024&h=1024",
		title:       "Luminous Void #6",
		description: "Light and darkness, presence and absence in digital space.",
	},
}

// Seed replaces every stored art piece with the demo set. Identifiers are
// drawn fresh so the set always passes identifier validation.
func (s *Service) Seed(ctx context.Context) (int, error) {
	ids, err := s.ids.GenerateUnique(len(demoPieces), nil)
	if err != nil {
		if errors.Is(err, identifier.ErrExhaustedCapacity) {
			metrics.RecordIdentifierExhausted()
		}
		return 0, err
	}
	metrics.RecordIdentifiersGenerated("seed", len(ids))

	created := s.now()
	pieces := make([]ArtPiece, 0, len(demoPieces))
	for i, demo := range demoPieces {
		piece := ArtPiece{
			Identifier:  ids[i],
			Title:       demo.title,
			Description: demo.description,
			MetadataURL: demo.metadataURL,
			ImageURL:    demo.imageURL,
			CreatedAt:   created.Add(time.Duration(i) * time.Second),
		}
		if demo.mintedBy != "" {
			mintedAt, err := time.Parse("2006-01-02", demo.mintedAt)
			if err != nil {
				return 0, err
			}
			minter := wallet.Normalize(demo.mintedBy)
			tokenID := demo.tokenID
			piece.IsMinted = true
			piece.MintedAt = &mintedAt
			piece.MintedBy = &minter
			piece.TokenID = &tokenID
		}
		pieces = append(pieces, piece)
	}

	if err := s.store.ReplaceArtPieces(ctx, pieces); err != nil {
		return 0, err
	}

	s.log.WithField("count", len(pieces)).Info("gallery seeded with demo pieces")
	return len(pieces), nil
}
