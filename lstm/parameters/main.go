package parameters

const (
	INPUT_SIZE           int     = 1    // power reading per timestep
	RNN_HIDDEN           int     = 100  // LSTM hidden units
	OUTPUT_SIZE          int     = 1    // P(EQ > 5) per timestep
	TINY                 float64 = 1e-6 // to avoid NaNs in logs
	LEARNING_RATE        float64 = 0.01
	EPOCHS               int     = 3
	ITERATIONS_PER_EPOCH int     = 100
	BATCH_SIZE           int     = 30
	TRAIN_WINDOWS        int     = 240
	TEST_WINDOWS         int     = 60
	FORGET_BIAS          float64 = 1.0
	SEED                 int64   = 1
	DATA_URL             string  = "https://raw.githubusercontent.com/nevelo/quake-predict/master/m_combined.csv"
	DATA_FILE            string  = "m_combined.csv"
)
