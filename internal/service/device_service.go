package service

import (
	"atlas-sync-engine/internal/domain"
	"atlas-sync-engine/internal/repository"
	"atlas-sync-engine/pkg/hash"
)

// DeviceService manages the installation's device identity and its
// enrollment with the clinic's pairing code. The code itself is never
// stored, only its hash.
type DeviceService struct {
	repo repository.DeviceRepository
}

func NewDeviceService(repo repository.DeviceRepository) *DeviceService {
	return &DeviceService{repo: repo}
}

func (s *DeviceService) Identity(name string) (*domain.DeviceIdentity, error) {
	return s.repo.GetOrCreate(name)
}

func (s *DeviceService) Pair(req *domain.PairDeviceRequest) (*domain.DeviceResponse, error) {
	device, err := s.repo.GetOrCreate(req.Name)
	if err != nil {
		return nil, err
	}

	pairingHash, err := hash.Hash(req.PairingCode)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SavePairingHash(pairingHash); err != nil {
		return nil, err
	}

	return &domain.DeviceResponse{
		ID:        device.ID,
		Name:      device.Name,
		Paired:    true,
		CreatedAt: device.CreatedAt,
	}, nil
}

func (s *DeviceService) Verify(req *domain.VerifyPairingRequest) error {
	device, err := s.repo.GetOrCreate(req.Name)
	if err != nil {
		return err
	}

	if device.PairingHash == "" {
		return ErrNotPaired
	}

	return hash.Compare(device.PairingHash, req.PairingCode)
}
