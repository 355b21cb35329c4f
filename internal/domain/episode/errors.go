package episode

import "errors"

var (
	// ErrIncompatibleEpisodes indicates two episodes cannot be combined
	// because their time bases or channel sets differ.
	ErrIncompatibleEpisodes = errors.New("incompatible episodes")

	// ErrEmptyEpisode indicates an episode with no samples.
	ErrEmptyEpisode = errors.New("empty episode")

	// ErrMalformedEpisode indicates channels of unequal length or a
	// non-positive sample time.
	ErrMalformedEpisode = errors.New("malformed episode")

	// ErrEpisodeNotFound indicates the requested episode is not in the corpus.
	ErrEpisodeNotFound = errors.New("episode not found")

	// ErrStoreClosed indicates an operation on a closed corpus store.
	ErrStoreClosed = errors.New("episode store is closed")

	// ErrStoreInitFailed indicates the corpus store failed to initialize.
	ErrStoreInitFailed = errors.New("episode store initialization failed")
)
